package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/twx/internal/formatter"
	"github.com/desertthunder/twx/internal/models"
	"github.com/desertthunder/twx/internal/server"
	"github.com/desertthunder/twx/internal/shared"
	"github.com/desertthunder/twx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// FavoriteCreate marks a status as favorite and prints the result.
//
// Failures are logged through the notifier and returned, so the exit code is non-zero.
func (r *Runner) FavoriteCreate(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	key, err := models.ParseAccountKey(cmd.String("account"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	c, err := r.open(nil)
	if err != nil {
		return err
	}
	defer c.close(context.WithoutCancel(ctx))

	account, err := c.accounts.Get(key)
	if err != nil {
		return err
	}

	status, found, err := tasks.ResolveStatus(c.statuses, r.config.Cache.Views, key, cmd.String("status"))
	if err != nil {
		return err
	}
	if !found {
		r.logger.Debug("status not cached, sending bare snapshot", "account", key, "status", status.ID)
	}

	result, err := c.favorites.CreateFavorite(ctx, account, status)
	if err != nil {
		return err
	}

	data, err := formatter.RenderResult(format, key, result)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// FavoriteInFlight asks a running 'twx serve' whether a favorite for the status is in flight.
//
// The in-flight registry lives in the serving process, so the query always goes over HTTP.
// --server defaults to the configured server address.
func (r *Runner) FavoriteInFlight(ctx context.Context, cmd *cli.Command) error {
	key, err := models.ParseAccountKey(cmd.String("account"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	statusID := cmd.String("status")

	base := cmd.String("server")
	if base == "" {
		base = r.serverURL()
	}

	resp, err := r.queryInFlight(ctx, base, key, statusID)
	if err != nil {
		return err
	}

	answer := "no"
	if resp.InFlight {
		answer = "yes"
	}
	return r.writePlain("%s status %s in flight: %s\n", key, statusID, answer)
}

// serverURL is the base URL 'twx serve' listens on with the current config.
func (r *Runner) serverURL() string {
	host := r.config.Server.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(r.config.Server.Port))
}

func (r *Runner) queryInFlight(ctx context.Context, base string, key models.AccountKey, statusID string) (*server.InFlightResponse, error) {
	q := url.Values{}
	q.Set("account", key.String())
	q.Set("status", statusID)
	endpoint := strings.TrimRight(base, "/") + "/api/favorites/inflight?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	client := r.httpClient
	if client == nil {
		client = &http.Client{Timeout: r.config.Remote.Timeout()}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: server returned %s", shared.ErrAPIRequest, resp.Status)
	}

	var body server.InFlightResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode server response: %w", err)
	}
	return &body, nil
}
