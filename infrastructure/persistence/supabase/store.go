// Package supabase implements ports.RemoteStore on top of a Supabase
// project's PostgREST endpoint.
package supabase

import (
	"context"
	"fmt"

	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/zhangshi0512/FactsHub/application/ports"
)

const (
	returnRepresentation = "representation"
	returnMinimal        = "minimal"
)

// Config holds the project coordinates. Email and Password are optional;
// when set the client signs in and sends the user's token instead of the
// anon key.
type Config struct {
	URL      string
	Key      string
	Schema   string
	Email    string
	Password string
}

// Store talks to the facts and comments tables over PostgREST.
type Store struct {
	client *supa.Client
	logger *zap.Logger
}

// NewStore creates the client and signs in when credentials are configured.
func NewStore(cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := supa.NewClient(cfg.URL, cfg.Key, &supa.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	s := &Store{client: client, logger: logger.Named("supabase")}

	if cfg.Email != "" {
		session, err := client.SignInWithEmailPassword(cfg.Email, cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to sign in to supabase: %w", err)
		}
		client.EnableTokenAutoRefresh(session)
		s.logger.Info("signed in to supabase", zap.String("email", cfg.Email))
	}

	return s, nil
}

// Query implements ports.RemoteStore.
func (s *Store) Query(ctx context.Context, table string, q ports.Query) ([]ports.Row, error) {
	return call(ctx, func() ([]ports.Row, error) {
		fb := s.client.From(table).Select("*", "", false)
		fb = applyFilter(fb, q.Filter)
		if q.Order != nil {
			fb = fb.Order(q.Order.Column, &postgrest.OrderOpts{Ascending: q.Order.Ascending})
		}
		if q.Limit > 0 {
			fb = fb.Limit(q.Limit, "")
		}

		var rows []ports.Row
		if _, err := fb.ExecuteTo(&rows); err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		return rows, nil
	})
}

// Insert implements ports.RemoteStore.
func (s *Store) Insert(ctx context.Context, table string, rows []ports.Row) ([]ports.Row, error) {
	return call(ctx, func() ([]ports.Row, error) {
		var out []ports.Row
		_, err := s.client.From(table).
			Insert(rows, false, "", returnRepresentation, "").
			ExecuteTo(&out)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, err)
		}
		return out, nil
	})
}

// Update implements ports.RemoteStore.
func (s *Store) Update(ctx context.Context, table string, patch ports.Row, match ports.Filter) ([]ports.Row, error) {
	return call(ctx, func() ([]ports.Row, error) {
		fb := s.client.From(table).Update(patch, returnRepresentation, "")
		fb = applyFilter(fb, match)

		var out []ports.Row
		if _, err := fb.ExecuteTo(&out); err != nil {
			return nil, fmt.Errorf("update %s: %w", table, err)
		}
		return out, nil
	})
}

// Delete implements ports.RemoteStore.
func (s *Store) Delete(ctx context.Context, table string, match ports.Filter) error {
	_, err := call(ctx, func() ([]ports.Row, error) {
		fb := s.client.From(table).Delete(returnMinimal, "")
		fb = applyFilter(fb, match)
		if _, _, err := fb.Execute(); err != nil {
			return nil, fmt.Errorf("delete %s: %w", table, err)
		}
		return nil, nil
	})
	return err
}

func applyFilter(fb *postgrest.FilterBuilder, filter ports.Filter) *postgrest.FilterBuilder {
	for _, c := range filter {
		fb = fb.Eq(c.Column, c.Value)
	}
	return fb
}

type result struct {
	rows []ports.Row
	err  error
}

// call runs fn, which has no context support, and stops waiting for it when
// ctx is done. The request itself still completes in the background.
func call(ctx context.Context, fn func() ([]ports.Row, error)) ([]ports.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan result, 1)
	go func() {
		rows, err := fn()
		done <- result{rows: rows, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.rows, r.err
	}
}
