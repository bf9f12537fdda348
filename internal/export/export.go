// Package export writes point-in-time JSON snapshots of every bug to a local
// directory or an S3 bucket.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joescharf/bugtrack/internal/models"
)

// Snapshot is the document written by Export.
type Snapshot struct {
	ExportedAt time.Time     `json:"exportedAt"`
	Count      int           `json:"count"`
	Bugs       []*models.Bug `json:"bugs"`
}

// Lister returns bugs in list order. *bugs.Service satisfies it.
type Lister interface {
	List(ctx context.Context) ([]*models.Bug, error)
}

// Sink stores a named snapshot document and returns where it was written.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// FileName is the object or file name used for a snapshot taken at t.
func FileName(t time.Time) string {
	return "bugs-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// Export takes a snapshot of every bug and hands it to sink.
func Export(ctx context.Context, l Lister, sink Sink, now time.Time) (string, *Snapshot, error) {
	list, err := l.List(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("list bugs: %w", err)
	}

	snap := &Snapshot{
		ExportedAt: now.UTC().Truncate(time.Millisecond),
		Count:      len(list),
		Bugs:       list,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode snapshot: %w", err)
	}

	loc, err := sink.Put(ctx, FileName(now), append(data, '\n'))
	if err != nil {
		return "", nil, fmt.Errorf("write snapshot: %w", err)
	}
	return loc, snap, nil
}

// Target resolves an export destination. Accepted forms are file://dir,
// s3://bucket[/prefix] and a bare directory path. s3cfg supplies region,
// endpoint and credentials; its Bucket and Prefix are taken from target.
func Target(ctx context.Context, target string, s3cfg S3Config) (Sink, error) {
	if target == "" {
		return nil, fmt.Errorf("export target is required")
	}
	if !strings.Contains(target, "://") {
		return NewFileSink(target), nil
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse export target: %w", err)
	}
	switch u.Scheme {
	case "file":
		dir := u.Host + u.Path
		if dir == "" {
			return nil, fmt.Errorf("file export target needs a directory")
		}
		return NewFileSink(dir), nil
	case "s3":
		s3cfg.Bucket = u.Host
		s3cfg.Prefix = strings.Trim(u.Path, "/")
		return NewS3Sink(ctx, s3cfg)
	default:
		return nil, fmt.Errorf("unsupported export scheme %q", u.Scheme)
	}
}
