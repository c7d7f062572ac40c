package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"transport-tracker/internal/geo"
	"transport-tracker/internal/route"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

type routeRow struct {
	ID, Name, Color, Origin, Destination string
}

type pointRow struct {
	RouteID string
	Seq     int
	Lat     float64
	Lon     float64
}

type stopRow struct {
	RouteID string
	Name    string
	Seq     int
}

// LoadRoutes reads every route with its ordered points and stops. The
// result still has to go through route.NewTable for validation.
func LoadRoutes(ctx context.Context, db *sql.DB) ([]route.Route, error) {
	routes, err := fetchRoutes(ctx, db)
	if err != nil {
		return nil, err
	}
	points, err := fetchPoints(ctx, db)
	if err != nil {
		return nil, err
	}
	stops, err := fetchStops(ctx, db)
	if err != nil {
		return nil, err
	}
	return assembleRoutes(routes, points, stops), nil
}

func fetchRoutes(ctx context.Context, db *sql.DB) ([]routeRow, error) {
	q := `SELECT route_id, COALESCE(route_name, ''), COALESCE(color, ''),
                 COALESCE(origin, ''), COALESCE(destination, '')
          FROM routes ORDER BY route_id`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()
	var out []routeRow
	for rows.Next() {
		var r routeRow
		if err := rows.Scan(&r.ID, &r.Name, &r.Color, &r.Origin, &r.Destination); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func fetchPoints(ctx context.Context, db *sql.DB) ([]pointRow, error) {
	// Detect column layout: either lat/lon exist, or use PostGIS point_loc geography
	latlonExists, err := hasColumns(ctx, db, "public", "route_points", "lat", "lon")
	if err != nil {
		return nil, fmt.Errorf("introspect route_points columns: %w", err)
	}
	var q string
	if latlonExists["lat"] && latlonExists["lon"] {
		q = `SELECT route_id, seq, lat, lon FROM route_points ORDER BY route_id, seq`
	} else {
		locExists, err := hasColumns(ctx, db, "public", "route_points", "point_loc")
		if err != nil {
			return nil, fmt.Errorf("introspect route_points point_loc: %w", err)
		}
		if !locExists["point_loc"] {
			return nil, fmt.Errorf("route_points table missing expected columns (lat/lon or point_loc)")
		}
		q = `SELECT route_id, seq,
                    ST_Y(point_loc::geometry) AS lat,
                    ST_X(point_loc::geometry) AS lon
             FROM route_points ORDER BY route_id, seq`
	}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query route_points: %w", err)
	}
	defer rows.Close()
	var out []pointRow
	for rows.Next() {
		var p pointRow
		if err := rows.Scan(&p.RouteID, &p.Seq, &p.Lat, &p.Lon); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func fetchStops(ctx context.Context, db *sql.DB) ([]stopRow, error) {
	exists, err := hasColumns(ctx, db, "public", "route_stops", "route_id")
	if err != nil {
		return nil, fmt.Errorf("introspect route_stops: %w", err)
	}
	if !exists["route_id"] {
		// Stops are optional
		return nil, nil
	}
	q := `SELECT route_id, stop_name, point_seq FROM route_stops ORDER BY route_id, point_seq`
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query route_stops: %w", err)
	}
	defer rows.Close()
	var out []stopRow
	for rows.Next() {
		var s stopRow
		if err := rows.Scan(&s.RouteID, &s.Name, &s.Seq); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// assembleRoutes groups point and stop rows under their routes. Rows must be
// ordered by sequence within a route. A stop whose sequence matches no
// point gets index -1 so table validation rejects the route.
func assembleRoutes(routes []routeRow, points []pointRow, stops []stopRow) []route.Route {
	byID := make(map[string]*route.Route, len(routes))
	seqIndex := make(map[string]map[int]int, len(routes))
	out := make([]route.Route, len(routes))
	for i, r := range routes {
		out[i] = route.Route{ID: r.ID, Name: r.Name, Color: r.Color, Origin: r.Origin, Destination: r.Destination}
		byID[r.ID] = &out[i]
		seqIndex[r.ID] = make(map[int]int)
	}
	for _, p := range points {
		r, ok := byID[p.RouteID]
		if !ok {
			continue
		}
		seqIndex[p.RouteID][p.Seq] = len(r.Points)
		r.Points = append(r.Points, geo.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}
	for _, s := range stops {
		r, ok := byID[s.RouteID]
		if !ok {
			continue
		}
		idx, ok := seqIndex[s.RouteID][s.Seq]
		if !ok {
			idx = -1
		}
		r.Stops = append(r.Stops, route.Stop{Name: s.Name, PointIndex: idx})
	}
	return out
}

// hasColumns returns a map of requested column names to existence for the given table.
func hasColumns(ctx context.Context, db *sql.DB, schema, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	// Initialize to false
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`
	rows, err := db.QueryContext(ctx, q, schema, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
