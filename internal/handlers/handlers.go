package handlers

import (
	"time"

	"album-engine/internal/cachestate"
	"album-engine/internal/imagecache"
	"album-engine/internal/library"
	"album-engine/internal/scheduler"
	"album-engine/internal/store"
)

type Handlers struct {
	store     *store.Store
	scheduler *scheduler.Scheduler
	tracker   *cachestate.Tracker
	library   library.Provider
	thumbs    *imagecache.Cache
	hq        *imagecache.Cache
	startTime time.Time
}

func New(s *store.Store, sched *scheduler.Scheduler, tracker *cachestate.Tracker,
	lib library.Provider, thumbs, hq *imagecache.Cache) *Handlers {
	return &Handlers{
		store:     s,
		scheduler: sched,
		tracker:   tracker,
		library:   lib,
		thumbs:    thumbs,
		hq:        hq,
		startTime: time.Now(),
	}
}
