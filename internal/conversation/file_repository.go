package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/convoview/storage"
)

// DefaultFilePrefix is the key prefix used when none is configured.
const DefaultFilePrefix = "conversations"

// FileRepository keeps each conversation as <prefix>/<id>.json on a
// storage backend.
type FileRepository struct {
	store  storage.Storage
	prefix string
	mu     sync.Mutex
}

var _ Repository = (*FileRepository)(nil)

// NewFileRepository creates a repository over store. An empty prefix uses
// DefaultFilePrefix.
func NewFileRepository(store storage.Storage, prefix string) *FileRepository {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	return &FileRepository{store: store, prefix: prefix}
}

func (r *FileRepository) key(id uint) string {
	return path.Join(r.prefix, strconv.FormatUint(uint64(id), 10)+".json")
}

func (r *FileRepository) List(ctx context.Context, opts ListOptions) ([]Conversation, int64, error) {
	opts = opts.Normalize()
	ids, err := r.ids(ctx)
	if err != nil {
		return nil, 0, err
	}

	all := make([]Conversation, 0, len(ids))
	for _, id := range ids {
		c, err := r.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, 0, err
		}
		all = append(all, *c)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].DateTime.Equal(all[j].DateTime) {
			return all[i].DateTime.After(all[j].DateTime)
		}
		return all[i].ID > all[j].ID
	})

	total := int64(len(all))
	start := opts.Offset()
	if start >= len(all) {
		return []Conversation{}, total, nil
	}
	end := min(start+opts.PageSize, len(all))
	return all[start:end], total, nil
}

func (r *FileRepository) Get(ctx context.Context, id uint) (*Conversation, error) {
	data, err := storage.ReadBytes(ctx, r.store, r.key(id))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, storage.FromStorage(err, "read", r.key(id))
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key(id), err)
	}
	c.ID = id
	return &c, nil
}

func (r *FileRepository) Create(ctx context.Context, c *Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.ids(ctx)
	if err != nil {
		return err
	}
	var next uint = 1
	if n := len(ids); n > 0 {
		next = ids[n-1] + 1
	}
	if c.DateTime.IsZero() {
		c.DateTime = time.Now().UTC()
	}

	stored := *c
	stored.ID = next
	data, err := json.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := storage.WriteBytes(ctx, r.store, r.key(next), data); err != nil {
		return storage.FromStorage(err, "write", r.key(next))
	}
	c.ID = next
	return nil
}

// ids returns the stored ids in ascending order. Keys that are not
// <number>.json are ignored.
func (r *FileRepository) ids(ctx context.Context) ([]uint, error) {
	infos, err := r.store.List(ctx, r.prefix+"/")
	if err != nil {
		return nil, storage.FromStorage(err, "list", r.prefix)
	}
	ids := make([]uint, 0, len(infos))
	for _, info := range infos {
		name := path.Base(info.Path)
		if path.Dir(info.Path) != r.prefix || !strings.HasSuffix(name, ".json") {
			continue
		}
		n, err := strconv.ParseUint(strings.TrimSuffix(name, ".json"), 10, 64)
		if err != nil || n == 0 {
			continue
		}
		ids = append(ids, uint(n))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
