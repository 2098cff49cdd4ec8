package scheduler

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/htomlinson/tranche/internal/database"
)

// SnapshotFlusher persists in-memory lot snapshots.
type SnapshotFlusher interface {
	FlushSnapshots() (int, error)
}

// SnapshotFlushJob periodically writes resolved lot snapshots to the cache
// database so a restart starts warm.
type SnapshotFlushJob struct {
	flusher SnapshotFlusher
	log     zerolog.Logger
}

// NewSnapshotFlushJob creates a snapshot flush job.
func NewSnapshotFlushJob(flusher SnapshotFlusher, log zerolog.Logger) *SnapshotFlushJob {
	return &SnapshotFlushJob{
		flusher: flusher,
		log:     log.With().Str("job", "snapshot_flush").Logger(),
	}
}

func (j *SnapshotFlushJob) Name() string { return "snapshot_flush" }

func (j *SnapshotFlushJob) Run() error {
	flushed, err := j.flusher.FlushSnapshots()
	if err != nil {
		return err
	}
	if flushed > 0 {
		j.log.Debug().Int("flushed", flushed).Msg("Flushed lot snapshots")
	}
	return nil
}

// StaleEvictor drops cached entries older than a cutoff.
type StaleEvictor interface {
	EvictStale(maxAge time.Duration) int
}

// CacheEvictJob drops stale in-memory snapshots so symbols that stopped
// trading do not pin cache slots forever.
type CacheEvictJob struct {
	evictor StaleEvictor
	maxAge  time.Duration
	log     zerolog.Logger
}

// NewCacheEvictJob creates a cache eviction job.
func NewCacheEvictJob(evictor StaleEvictor, maxAge time.Duration, log zerolog.Logger) *CacheEvictJob {
	return &CacheEvictJob{
		evictor: evictor,
		maxAge:  maxAge,
		log:     log.With().Str("job", "cache_evict").Logger(),
	}
}

func (j *CacheEvictJob) Name() string { return "cache_evict" }

func (j *CacheEvictJob) Run() error {
	dropped := j.evictor.EvictStale(j.maxAge)
	if dropped > 0 {
		j.log.Debug().Int("dropped", dropped).Msg("Evicted stale snapshots")
	}
	return nil
}

// WALCheckpointJob periodically checkpoints the WAL of each database so the
// log file does not grow without bound between restarts.
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a WAL checkpoint job.
func NewWALCheckpointJob(log zerolog.Logger, dbs ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: dbs,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

func (j *WALCheckpointJob) Name() string { return "wal_checkpoint" }

func (j *WALCheckpointJob) Run() error {
	for _, db := range j.databases {
		if db == nil {
			continue
		}
		if err := db.WALCheckpoint("TRUNCATE"); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}
	}
	return nil
}
