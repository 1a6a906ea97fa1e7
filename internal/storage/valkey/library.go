// Package valkey stores the scene library in a Valkey (or Redis) server.
package valkey

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/valkey-io/valkey-go"

	"github.com/Faultbox/webray-editor/internal/storage"
)

const scanCount = 100

// Library keeps each scene under prefix+name.
type Library struct {
	client valkey.Client
	prefix string
}

// Dial connects to the server at addr.
func Dial(addr, prefix string) (*Library, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to valkey %s: %w", addr, err)
	}
	return New(client, prefix), nil
}

// New wraps an existing client. The library takes ownership of it.
func New(client valkey.Client, prefix string) *Library {
	return &Library{client: client, prefix: prefix}
}

func (l *Library) Close() {
	l.client.Close()
}

// Ping checks that the server is reachable.
func (l *Library) Ping(ctx context.Context) error {
	return l.client.Do(ctx, l.client.B().Ping().Build()).Error()
}

func (l *Library) Put(ctx context.Context, name string, data []byte) error {
	if err := storage.ValidateName(name); err != nil {
		return err
	}
	cmd := l.client.B().Set().Key(l.prefix + name).Value(valkey.BinaryString(data)).Build()
	if err := l.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("storing scene %s: %w", name, err)
	}
	return nil
}

func (l *Library) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := l.client.Do(ctx, l.client.B().Get().Key(l.prefix+name).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading scene %s: %w", name, err)
	}
	return data, nil
}

func (l *Library) List(ctx context.Context) ([]string, error) {
	var (
		names  []string
		cursor uint64
	)
	for {
		cmd := l.client.B().Scan().Cursor(cursor).Match(l.prefix + "*").Count(scanCount).Build()
		entry, err := l.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("listing scenes: %w", err)
		}
		for _, key := range entry.Elements {
			names = append(names, strings.TrimPrefix(key, l.prefix))
		}
		if entry.Cursor == 0 {
			break
		}
		cursor = entry.Cursor
	}

	slices.Sort(names)
	return slices.Compact(names), nil
}

var _ storage.Library = (*Library)(nil)
