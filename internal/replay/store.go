package replay

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"

	"github.com/oimasterkafuu/checkmate/internal/protocol"
)

const fileExt = ".rpl"

var (
	ErrReplayNotFound  = errors.New("replay not found")
	ErrInvalidReplayID = errors.New("invalid replay id")

	replayIDPattern = regexp.MustCompile(`^[0-9A-Za-z+-]+$`)
)

// Builder reconstructs a playable replay from recorded actions.
type Builder func(data *protocol.ActionData) (*protocol.ReplayData, error)

// ID derives the replay id from the compressed file content.
func ID(content []byte) string {
	sum := sha256.Sum256(content)
	return strings.ReplaceAll(base64.StdEncoding.EncodeToString(sum[:9]), "/", "-")
}

func ValidID(id string) bool { return replayIDPattern.MatchString(id) }

// Store keeps zstd-compressed action data on disk, one file per replay,
// and lists them through an Index.
type Store struct {
	dir    string
	index  *Index
	build  Builder
	level  zstd.EncoderLevel
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates a store rooted at dir. build may be nil when only the
// raw actions are needed.
func NewStore(dir string, index *Index, build Builder, logger zerolog.Logger) *Store {
	return &Store{
		dir:    dir,
		index:  index,
		build:  build,
		level:  zstd.SpeedDefault,
		logger: logger.With().Str("component", "ReplayStore").Logger(),
		now:    time.Now,
	}
}

// WithLevel sets the zstd encoder level, e.g. from config.
func (s *Store) WithLevel(level zstd.EncoderLevel) *Store {
	s.level = level
	return s
}

func (s *Store) EnsureReady() error {
	return os.MkdirAll(s.dir, 0o755)
}

func (s *Store) encode(data *protocol.ActionData) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode replay: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(s.level))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// Save compresses data, writes it under its content id and indexes it.
func (s *Store) Save(ctx context.Context, data *protocol.ActionData, summary protocol.Summary) (string, error) {
	content, err := s.encode(data)
	if err != nil {
		return "", err
	}
	id := ID(content)
	if err := s.EnsureReady(); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(s.dir, id+fileExt), content, 0o644); err != nil {
		return "", fmt.Errorf("write replay %s: %w", id, err)
	}

	item := protocol.ListItem{
		Time: s.now().Unix(),
		ID:   id,
		Rank: append([]string(nil), summary.Rank...),
		Turn: summary.Turn,
	}
	if s.index != nil {
		if err := s.index.Add(ctx, item); err != nil {
			return "", fmt.Errorf("index replay %s: %w", id, err)
		}
	}
	s.logger.Info().Str("replay_id", id).Int("turn", summary.Turn).Int("bytes", len(content)).Msg("Replay saved")
	return id, nil
}

func (s *Store) path(id string) (string, error) {
	if !ValidID(id) {
		return "", ErrInvalidReplayID
	}
	root, err := filepath.Abs(s.dir)
	if err != nil {
		return "", err
	}
	p := filepath.Join(root, id+fileExt)
	if !strings.HasPrefix(p, root+string(filepath.Separator)) {
		return "", ErrInvalidReplayID
	}
	return p, nil
}

// LoadActions reads the recorded actions of a replay.
func (s *Store) LoadActions(id string) (*protocol.ActionData, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrReplayNotFound
		}
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var data protocol.ActionData
	if err := json.NewDecoder(bufio.NewReader(dec)).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode replay %s: %w", id, err)
	}
	if data.Version != protocol.ActionDataVersion {
		return nil, fmt.Errorf("replay %s: unsupported version %q", id, data.Version)
	}
	return &data, nil
}

// Load reads a replay and rebuilds its frames.
func (s *Store) Load(id string) (*protocol.ReplayData, error) {
	data, err := s.LoadActions(id)
	if err != nil {
		return nil, err
	}
	if s.build == nil {
		return nil, fmt.Errorf("replay %s: no builder configured", id)
	}
	return s.build(data)
}

// List returns the indexed replays, newest first.
func (s *Store) List(ctx context.Context) ([]protocol.ListItem, error) {
	if s.index == nil {
		return []protocol.ListItem{}, nil
	}
	return s.index.List(ctx)
}
