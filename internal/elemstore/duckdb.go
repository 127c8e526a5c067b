package elemstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/osmview/osmview/pkg/geobox"
	"github.com/osmview/osmview/pkg/osm"
)

// DuckDB is a Store backed by an embedded DuckDB database. Elements carry
// a precomputed bounding box so ways and relations answer box-intersection
// queries without walking their members.
type DuckDB struct {
	db *sql.DB
}

const duckSchema = `
CREATE TABLE IF NOT EXISTS elements (
	kind VARCHAR NOT NULL,
	id BIGINT NOT NULL,
	lon DOUBLE,
	lat DOUBLE,
	min_lon DOUBLE,
	min_lat DOUBLE,
	max_lon DOUBLE,
	max_lat DOUBLE,
	tags VARCHAR,
	members VARCHAR,
	PRIMARY KEY (kind, id)
);
CREATE TABLE IF NOT EXISTS notes (
	id BIGINT PRIMARY KEY,
	lon DOUBLE,
	lat DOUBLE,
	status VARCHAR,
	created_at TIMESTAMP,
	body VARCHAR
);
`

// OpenDuckDB opens (or creates) the element database under dataDir.
func OpenDuckDB(dataDir, name string) (*DuckDB, error) {
	dir := filepath.Join(dataDir, "duckdb")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating duckdb directory: %w", err)
	}

	db, err := sql.Open("duckdb", filepath.Join(dir, name+".duckdb"))
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	if _, err := db.Exec(duckSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &DuckDB{db: db}, nil
}

// Close closes the underlying database.
func (s *DuckDB) Close() error {
	return s.db.Close()
}

// ImportElements upserts a batch of elements. Way and relation bounding
// boxes are computed from member coordinates in the batch, falling back to
// nodes already stored.
func (s *DuckDB) ImportElements(ctx context.Context, elements []osm.Element) error {
	coords := make(map[int64][2]float64)
	for _, el := range elements {
		if el.Kind == osm.KindNode {
			coords[el.ID] = [2]float64{el.Lon, el.Lat}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO elements
		(kind, id, lon, lat, min_lon, min_lat, max_lon, max_lat, tags, members)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	// Two passes so way boxes exist before relations union them.
	boxes := make(map[elementKey]*geobox.Bounds)
	for _, pass := range []osm.ElementKind{osm.KindNode, osm.KindWay, osm.KindRelation} {
		for _, el := range elements {
			if el.Kind != pass {
				continue
			}
			box, err := s.elementBox(ctx, el, coords, boxes)
			if err != nil {
				return err
			}
			boxes[elementKey{el.Kind, el.ID}] = box

			tags, err := json.Marshal(el.Tags)
			if err != nil {
				return err
			}
			members, err := json.Marshal(el.Members)
			if err != nil {
				return err
			}
			var minLon, minLat, maxLon, maxLat any
			if box != nil {
				minLon, minLat, maxLon, maxLat = box.MinLon, box.MinLat, box.MaxLon, box.MaxLat
			}
			if _, err := stmt.ExecContext(ctx, string(el.Kind), el.ID, el.Lon, el.Lat,
				minLon, minLat, maxLon, maxLat, string(tags), string(members)); err != nil {
				return fmt.Errorf("inserting %s/%d: %w", el.Kind, el.ID, err)
			}
		}
	}
	return tx.Commit()
}

func (s *DuckDB) elementBox(ctx context.Context, el osm.Element, coords map[int64][2]float64, boxes map[elementKey]*geobox.Bounds) (*geobox.Bounds, error) {
	switch el.Kind {
	case osm.KindNode:
		return &geobox.Bounds{MinLon: el.Lon, MinLat: el.Lat, MaxLon: el.Lon, MaxLat: el.Lat}, nil
	case osm.KindWay:
		var box *geobox.Bounds
		for _, member := range el.Members {
			c, ok := coords[member.ID]
			if !ok {
				lon, lat, err := s.nodeCoords(ctx, member.ID)
				if err != nil {
					continue // dangling reference, resolved client-side
				}
				c = [2]float64{lon, lat}
			}
			b := geobox.Union(box, geobox.Bounds{MinLon: c[0], MinLat: c[1], MaxLon: c[0], MaxLat: c[1]})
			box = &b
		}
		return box, nil
	default:
		var box *geobox.Bounds
		for _, member := range el.Members {
			if mb := boxes[elementKey{member.Kind, member.ID}]; mb != nil {
				b := geobox.Union(box, *mb)
				box = &b
			}
		}
		return box, nil
	}
}

func (s *DuckDB) nodeCoords(ctx context.Context, id int64) (lon, lat float64, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT lon, lat FROM elements WHERE kind = 'node' AND id = ?`, id).
		Scan(&lon, &lat)
	return
}

// ImportNotes upserts a batch of notes.
func (s *DuckDB) ImportNotes(ctx context.Context, notes []osm.Note) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, n := range notes {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO notes (id, lon, lat, status, created_at, body)
			VALUES (?, ?, ?, ?, ?, ?)`,
			n.ID, n.Lon, n.Lat, n.Status, n.CreatedAt, n.Text); err != nil {
			return fmt.Errorf("inserting note %d: %w", n.ID, err)
		}
	}
	return tx.Commit()
}

func (s *DuckDB) Elements(ctx context.Context, b geobox.Bounds, limit int) ([]osm.Element, bool, error) {
	acc := newAccumulator()
	for _, seg := range segments(b) {
		if err := s.segmentElements(ctx, seg, acc); err != nil {
			return nil, false, err
		}
	}
	if limit > 0 && acc.nodeCount > limit {
		return nil, true, nil
	}
	return acc.sorted(), false, nil
}

func (s *DuckDB) segmentElements(ctx context.Context, b geobox.Bounds, acc *accumulator) error {
	// Nodes inside the box.
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, id, lon, lat, tags, members FROM elements
		WHERE kind = 'node' AND lon >= ? AND lon <= ? AND lat >= ? AND lat <= ?`,
		b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
	if err != nil {
		return err
	}
	if err := scanElements(rows, acc); err != nil {
		return err
	}

	// Ways and relations whose precomputed box intersects.
	rows, err = s.db.QueryContext(ctx, `
		SELECT kind, id, lon, lat, tags, members FROM elements
		WHERE kind <> 'node'
		AND max_lon >= ? AND min_lon <= ? AND max_lat >= ? AND min_lat <= ?`,
		b.MinLon, b.MaxLon, b.MinLat, b.MaxLat)
	if err != nil {
		return err
	}
	if err := scanElements(rows, acc); err != nil {
		return err
	}

	// Member nodes of included ways that fall outside the box.
	var missing []int64
	for _, el := range acc.elems {
		if el.Kind != osm.KindWay {
			continue
		}
		for _, member := range el.Members {
			if !acc.has(osm.KindNode, member.ID) {
				missing = append(missing, member.ID)
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	args := make([]any, len(missing))
	ph := make([]string, len(missing))
	for i, id := range missing {
		args[i] = id
		ph[i] = "?"
	}
	rows, err = s.db.QueryContext(ctx, `
		SELECT kind, id, lon, lat, tags, members FROM elements
		WHERE kind = 'node' AND id IN (`+strings.Join(ph, ",")+`)`, args...)
	if err != nil {
		return err
	}
	return scanElements(rows, acc)
}

func scanElements(rows *sql.Rows, acc *accumulator) error {
	defer rows.Close()
	for rows.Next() {
		var (
			el            osm.Element
			kind          string
			tags, members string
		)
		if err := rows.Scan(&kind, &el.ID, &el.Lon, &el.Lat, &tags, &members); err != nil {
			return err
		}
		el.Kind = osm.ElementKind(kind)
		if err := json.Unmarshal([]byte(tags), &el.Tags); err != nil {
			return fmt.Errorf("decoding tags of %s/%d: %w", kind, el.ID, err)
		}
		if err := json.Unmarshal([]byte(members), &el.Members); err != nil {
			return fmt.Errorf("decoding members of %s/%d: %w", kind, el.ID, err)
		}
		acc.add(el)
	}
	return rows.Err()
}

func (s *DuckDB) Notes(ctx context.Context, b geobox.Bounds, limit int) ([]osm.Note, error) {
	var out []osm.Note
	for _, seg := range segments(b) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, lon, lat, status, created_at, body FROM notes
			WHERE lon >= ? AND lon <= ? AND lat >= ? AND lat <= ?
			ORDER BY id`,
			seg.MinLon, seg.MaxLon, seg.MinLat, seg.MaxLat)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var n osm.Note
			if err := rows.Scan(&n.ID, &n.Lon, &n.Lat, &n.Status, &n.CreatedAt, &n.Text); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, n)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
