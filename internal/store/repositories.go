package store

import "github.com/pkazmin/go-media-cache/internal/logger"

// Repositories bundles every repository sharing one cache database handle.
type Repositories struct {
	Media     MediaRepository
	Search    SearchRepository
	MediaSets MediaSetRepository
	Grants    GrantsRepository
	Pager     Pager
}

// NewRepositories wires all repositories over a connected [DB].
func NewRepositories(db *DB, log *logger.Logger) *Repositories {
	return &Repositories{
		Media:     NewMediaRepository(db, log),
		Search:    NewSearchRepository(db, log),
		MediaSets: NewMediaSetRepository(db, log),
		Grants:    NewGrantsRepository(db, log),
		Pager:     NewPager(db, log),
	}
}
