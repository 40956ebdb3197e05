package dispatch

import (
	"context"
	"log/slog"
	"path"

	"github.com/cenkalti/backoff/v4"

	"github.com/gdrelay/gdrelay/internal/activity"
	"github.com/gdrelay/gdrelay/internal/httpsession"
	"github.com/gdrelay/gdrelay/internal/receiver"
)

const kavitaMaxReauthAttempts = 5

// Kavita buffers events per parent folder and, once per flush interval,
// asks Kavita to rescan the affected folder(s). A bucket containing any
// file-typed entry collapses to a single scan of the parent folder;
// otherwise each distinct subfolder is scanned individually
// (original_source's KavitaDispatcher.buffered_dispatch). A 401 triggers
// up to kavitaMaxReauthAttempts reauthenticate-then-retry cycles via
// cenkalti/backoff before giving up on the remaining targets in this
// flush.
type Kavita struct {
	*BufferedBase
	client *receiver.Kavita
	logger *slog.Logger
}

// NewKavita builds a Kavita dispatcher.
func NewKavita(session *httpsession.Session, baseURL, apikey string, mappings []string, bufferInterval int, logger *slog.Logger) (*Kavita, error) {
	client, err := receiver.NewKavita(session, baseURL, apikey)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := NewBufferedBase(intervalDuration(bufferInterval), logger)
	base.Base = Base{Mappings: parseMappings(mappings)}
	return &Kavita{BufferedBase: base, client: client, logger: logger}, nil
}

// Start launches the flush loop.
func (k *Kavita) Start(ctx context.Context) error {
	go k.Run(ctx, k)
	return nil
}

// FlushBucket implements BucketFlusher.
func (k *Kavita) FlushBucket(ctx context.Context, parent string, bucket map[activity.Action][]activity.FolderEntry) {
	hasFile := false
	var names []string
	for _, entries := range bucket {
		for _, e := range entries {
			names = append(names, e.Name)
			if !e.IsFolder {
				hasFile = true
			}
		}
	}
	if len(names) == 0 {
		return
	}

	var folders []string
	if hasFile {
		folders = []string{parent}
	} else {
		for _, n := range names {
			folders = append(folders, path.Join(parent, n))
		}
	}

	for _, target := range folders {
		kavitaPath := k.MapPath(target)
		if !k.scanWithReauth(ctx, kavitaPath) {
			k.logger.Error("kavita: failed to authenticate after max attempts, abandoning remaining targets", "parent", parent)
			return
		}
	}
}

// scanWithReauth attempts to scan path, reauthenticating and retrying on
// a 401 up to kavitaMaxReauthAttempts times. It returns false only when
// every attempt hit a 401 (the caller then abandons the rest of this
// flush, matching the original's outer `break`).
func (k *Kavita) scanWithReauth(ctx context.Context, folderPath string) bool {
	attempt := 0
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(0), kavitaMaxReauthAttempts-1)
	succeeded := false

	_ = backoff.Retry(func() error {
		attempt++
		resp, err := k.client.ScanFolder(ctx, folderPath)
		if err != nil {
			k.logger.Warn("kavita scan request failed", "path", folderPath, "err", err)
			succeeded = true // transport failure is not a 401; stop retrying, matches Python's non-401 break
			return nil
		}
		if resp.StatusCode == 401 {
			if err := k.client.Authenticate(ctx); err != nil {
				k.logger.Error("kavita reauthenticate failed", "err", err)
			}
			return errRetry401
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			k.logger.Warn("kavita returned non-2xx", "status", resp.StatusCode, "path", folderPath)
		}
		succeeded = true
		return nil
	}, backoff.WithContext(policy, ctx))

	_ = attempt
	return succeeded
}

var errRetry401 = &retry401Error{}

type retry401Error struct{}

func (*retry401Error) Error() string { return "kavita: token expired (401)" }
