package models

import (
	"testing"
)

func TestParseBackendType(t *testing.T) {
	tc := []struct {
		input string
		want  BackendType
	}{
		{"twitter", BackendTwitter},
		{"fanfou", BackendFanfou},
		{"Mastodon", BackendMastodon},
		{"  mastodon ", BackendMastodon},
		{"statusnet", BackendTwitter},
		{"", BackendTwitter},
	}

	for _, tt := range tc {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseBackendType(tt.input); got != tt.want {
				t.Errorf("ParseBackendType(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestAccountKey(t *testing.T) {
	t.Run("Parse", func(t *testing.T) {
		tc := []struct {
			name    string
			input   string
			want    AccountKey
			wantErr bool
		}{
			{name: "id and host", input: "42@twitter.com", want: AccountKey{ID: "42", Host: "twitter.com"}},
			{name: "bare id", input: "42", want: AccountKey{ID: "42"}},
			{name: "id containing at", input: "a@b@mastodon.social", want: AccountKey{ID: "a@b", Host: "mastodon.social"}},
			{name: "empty", input: "", wantErr: true},
			{name: "missing id", input: "@host", wantErr: true},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				got, err := ParseAccountKey(tt.input)
				if tt.wantErr {
					if err == nil {
						t.Fatalf("expected error for %q", tt.input)
					}
					return
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("got %+v, want %+v", got, tt.want)
				}
			})
		}
	})

	t.Run("String round trip", func(t *testing.T) {
		key := AccountKey{ID: "7", Host: "fanfou.com"}
		parsed, err := ParseAccountKey(key.String())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if parsed != key {
			t.Errorf("expected %+v, got %+v", key, parsed)
		}
	})
}

func TestDraft(t *testing.T) {
	t.Run("StatusExtras", func(t *testing.T) {
		status := Status{ID: "100", RepostOfID: "99", FavoriteCount: 3}
		draft, err := NewStatusActionDraft(DraftActionFavorite, []AccountKey{{ID: "1", Host: "h"}}, status)
		if err != nil {
			t.Fatalf("failed to create draft: %v", err)
		}

		extras, err := draft.StatusExtras()
		if err != nil {
			t.Fatalf("failed to decode extras: %v", err)
		}
		if extras.Status.ID != "100" || extras.Status.RepostOfID != "99" || extras.Status.FavoriteCount != 3 {
			t.Errorf("unexpected status in extras: %+v", extras.Status)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		draft := NewDraft(0, DraftActionFavorite, []AccountKey{{ID: "1"}}, nil)
		if err := draft.Validate(); err == nil {
			t.Error("expected error for draft without id")
		}

		draft.SetID("d1")
		if err := draft.Validate(); err != nil {
			t.Errorf("expected valid draft, got %v", err)
		}

		noAccounts := NewDraft(0, DraftActionFavorite, nil, nil)
		noAccounts.SetID("d2")
		if err := noAccounts.Validate(); err == nil {
			t.Error("expected error for draft without accounts")
		}
	})
}

func TestFavoriteResultState(t *testing.T) {
	result := FavoriteResult{StatusID: "1", IsFavorite: true, ReplyCount: 5, RepostCount: 2, FavoriteCount: 9}
	state := result.State()

	if !state.IsFavorite || state.ReplyCount != 5 || state.RepostCount != 2 || state.FavoriteCount != 9 {
		t.Errorf("unexpected state: %+v", state)
	}

	var activity Activity
	activity.Apply(state)
	if !activity.IsFavorite || activity.FavoriteCount != 9 {
		t.Errorf("expected activity to carry state, got %+v", activity)
	}
}
