package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"album-engine/internal/logging"
	"album-engine/internal/metrics"
)

const (
	featuredCount  = 5
	featuredWindow = 30 * 24 * time.Hour
)

// insertAlbum writes one validated album inside a transaction.
func insertAlbum(tx *sql.Tx, album *SmartAlbum) error {
	_, err := tx.Exec(
		"INSERT INTO albums (id, title, created_at, relevance_score, thumbnail_asset_id) VALUES (?, ?, ?, ?, ?)",
		album.ID, album.Title, album.CreatedAt.Unix(), album.RelevanceScore, album.ThumbnailAssetID,
	)
	if err != nil {
		return fmt.Errorf("insert album %s: %w", album.ID, err)
	}

	for i, tag := range album.Tags {
		if _, err := tx.Exec(
			"INSERT INTO album_tags (album_id, position, tag) VALUES (?, ?, ?)",
			album.ID, i, tag,
		); err != nil {
			return fmt.Errorf("insert tag for album %s: %w", album.ID, err)
		}
	}

	for i, assetID := range album.AssetIDs {
		if _, err := tx.Exec(
			"INSERT INTO album_assets (album_id, position, asset_id) VALUES (?, ?, ?)",
			album.ID, i, assetID,
		); err != nil {
			return fmt.Errorf("insert asset for album %s: %w", album.ID, err)
		}
	}
	return nil
}

// ReplaceAll deletes every persisted album and inserts the given set in
// a single transaction. Used on explicit regeneration; a failure leaves
// the previous set intact.
func (s *Store) ReplaceAll(ctx context.Context, albums []*SmartAlbum) (err error) {
	start := time.Now()
	defer func() { observe("replace_all", start, err) }()

	for _, album := range albums {
		if err = album.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.BeginBatch()
	if err != nil {
		return err
	}
	defer func() { err = s.EndBatch(tx, err) }()

	if _, err = tx.Exec("DELETE FROM albums"); err != nil {
		return fmt.Errorf("clear albums: %w", err)
	}
	for _, album := range albums {
		if err = insertAlbum(tx, album); err != nil {
			return err
		}
	}

	metrics.StoreAlbumsTotal.Set(float64(len(albums)))
	return nil
}

// AppendBatch inserts one batch of albums in its own transaction. A
// failure rolls back only this batch; albums from earlier batches stay
// persisted.
func (s *Store) AppendBatch(ctx context.Context, albums []*SmartAlbum) (err error) {
	if len(albums) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe("append_batch", start, err) }()

	for _, album := range albums {
		if err = album.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.BeginBatch()
	if err != nil {
		return err
	}
	defer func() { err = s.EndBatch(tx, err) }()

	for _, album := range albums {
		if err = insertAlbum(tx, album); err != nil {
			return err
		}
	}

	metrics.StoreAlbumsTotal.Add(float64(len(albums)))
	return nil
}

// All returns every album in the requested order, with stale asset
// references pruned when a resolver is installed.
func (s *Store) All(ctx context.Context, order SortOrder) (albums []*SmartAlbum, err error) {
	start := time.Now()
	defer func() { observe("all", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	orderBy := "created_at DESC"
	if order == SortByScore {
		orderBy = "relevance_score DESC"
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, created_at, relevance_score, thumbnail_asset_id FROM albums ORDER BY "+orderBy,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*SmartAlbum)
	for rows.Next() {
		var a SmartAlbum
		var createdAt int64
		if err = rows.Scan(&a.ID, &a.Title, &createdAt, &a.RelevanceScore, &a.ThumbnailAssetID); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(createdAt, 0)
		albums = append(albums, &a)
		byID[a.ID] = &a
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	if err = s.loadTags(ctx, byID); err != nil {
		return nil, err
	}
	if err = s.loadAssets(ctx, byID); err != nil {
		return nil, err
	}

	return s.pruneStale(albums), nil
}

func (s *Store) loadTags(ctx context.Context, byID map[string]*SmartAlbum) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT album_id, tag FROM album_tags ORDER BY album_id, position",
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var albumID, tag string
		if err := rows.Scan(&albumID, &tag); err != nil {
			return err
		}
		if a, ok := byID[albumID]; ok {
			a.Tags = append(a.Tags, tag)
		}
	}
	return rows.Err()
}

func (s *Store) loadAssets(ctx context.Context, byID map[string]*SmartAlbum) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT album_id, asset_id FROM album_assets ORDER BY album_id, position",
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var albumID, assetID string
		if err := rows.Scan(&albumID, &assetID); err != nil {
			return err
		}
		if a, ok := byID[albumID]; ok {
			a.AssetIDs = append(a.AssetIDs, assetID)
		}
	}
	return rows.Err()
}

// pruneStale drops asset references the resolver no longer recognizes
// and repairs thumbnails pointing at vanished assets. An album whose
// every asset vanished is omitted from the result; the rows stay in
// place until the next regeneration replaces them.
func (s *Store) pruneStale(albums []*SmartAlbum) []*SmartAlbum {
	if s.resolver == nil {
		return albums
	}

	kept := albums[:0]
	for _, a := range albums {
		surviving := a.AssetIDs[:0]
		for _, id := range a.AssetIDs {
			if s.resolver(id) {
				surviving = append(surviving, id)
			}
		}
		a.AssetIDs = surviving

		if len(a.AssetIDs) == 0 {
			logging.Debug("album %s has no resolvable assets, hiding from reads", a.ID)
			continue
		}
		if !s.resolver(a.ThumbnailAssetID) {
			a.ThumbnailAssetID = a.AssetIDs[0]
		}
		kept = append(kept, a)
	}
	return kept
}

// Featured returns the top albums by score among those created within
// the last 30 days. When fewer than five recent albums exist, the list
// is topped up with the highest-scored older ones.
func (s *Store) Featured(ctx context.Context) ([]*SmartAlbum, error) {
	start := time.Now()
	albums, err := s.All(ctx, SortByScore)
	observe("featured", start, err)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-featuredWindow)

	var recent, older []*SmartAlbum
	for _, a := range albums {
		if a.CreatedAt.After(cutoff) {
			recent = append(recent, a)
		} else {
			older = append(older, a)
		}
	}

	// Both lists inherit the score ordering from All.
	featured := recent
	if len(featured) > featuredCount {
		featured = featured[:featuredCount]
	} else if len(featured) < featuredCount {
		need := featuredCount - len(featured)
		if need > len(older) {
			need = len(older)
		}
		featured = append(featured, older[:need]...)
		sort.SliceStable(featured, func(i, j int) bool {
			return featured[i].RelevanceScore > featured[j].RelevanceScore
		})
	}
	return featured, nil
}

// Delete removes one album by id. Deleting an unknown id is not an
// error.
func (s *Store) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe("delete", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, "DELETE FROM albums WHERE id = ?", id)
	if err != nil {
		return err
	}
	if rows, rerr := result.RowsAffected(); rerr == nil && rows > 0 {
		metrics.StoreAlbumsTotal.Sub(float64(rows))
	}
	return nil
}

// Count returns the number of persisted albums.
func (s *Store) Count(ctx context.Context) (count int, err error) {
	start := time.Now()
	defer func() { observe("count", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM albums").Scan(&count)
	return count, err
}
