package reports

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/report"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Hierarchy interface {
	httpx.AccessChecker
	AccessibleIDs(ctx context.Context, id int64) ([]int64, error)
}

type Server struct {
	log  *zap.Logger
	repo notification.Repo
	tree Hierarchy
}

func NewServer(repo notification.Repo, tree Hierarchy, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log.With(zap.String("component", "api.reports")), repo: repo, tree: tree}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodGet, Pattern: "/v1/reports/raw", Perm: role.ReportsRead, Handle: s.Raw},
		{Method: http.MethodGet, Pattern: "/v1/reports/tiles", Perm: role.ReportsRead, Handle: s.Tiles},
		{Method: http.MethodGet, Pattern: "/v1/reports/preview", Perm: role.ReportsRead, Handle: s.Preview},
		{Method: http.MethodGet, Pattern: "/v1/reports/export", Perm: role.ReportsExport, Handle: s.Export},
	}
}

type query struct {
	locationID int64
	from       time.Time
	to         time.Time
}

func (s *Server) Raw(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	records, _, err := s.load(r)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, records)
	return nil
}

func (s *Server) Tiles(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	records, _, err := s.load(r)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, report.ProcessRawData(records))
	return nil
}

func (s *Server) Preview(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	records, _, err := s.load(r)
	if err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, report.PreparePreviewData(records))
	return nil
}

func (s *Server) Export(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	records, q, err := s.load(r)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(q)))
	w.WriteHeader(http.StatusOK)
	if err := report.WritePreviewXLSX(w, report.PreparePreviewData(records), report.ProcessRawData(records)); err != nil {
		// headers are gone; the client sees a truncated file
		s.log.Error("export write failed", zap.Error(err))
	}
	return nil
}

// load resolves the location scope and fetches the records every report view is computed from.
func (s *Server) load(r *http.Request) ([]report.Record, query, error) {
	q, err := parseQuery(r)
	if err != nil {
		return nil, q, err
	}
	ctx := r.Context()
	if err := httpx.RequireAccess(ctx, s.tree, q.locationID); err != nil {
		return nil, q, err
	}
	ids, err := s.tree.AccessibleIDs(ctx, q.locationID)
	if err != nil {
		return nil, q, err
	}
	list, err := s.repo.List(ctx, notification.Filter{LocationIDs: ids, From: q.from, To: q.to})
	if err != nil {
		return nil, q, err
	}
	return ToRecords(list), q, nil
}

func parseQuery(r *http.Request) (query, error) {
	p, ok := httpx.PrincipalFrom(r.Context())
	if !ok {
		return query{}, httpx.ErrUnauthenticated
	}
	var (
		q   query
		err error
	)
	if q.locationID, err = httpx.QueryInt64(r, "location_id", p.LocationID); err != nil {
		return q, err
	}
	if q.from, err = httpx.QueryDate(r, "from"); err != nil {
		return q, err
	}
	if q.to, err = httpx.QueryDate(r, "to"); err != nil {
		return q, err
	}
	if !q.from.IsZero() && !q.to.IsZero() && q.to.Before(q.from) {
		return q, httpx.Invalid("to is before from")
	}
	return q, nil
}

func exportName(q query) string {
	name := fmt.Sprintf("stillbirths-%d", q.locationID)
	if !q.from.IsZero() {
		name += "-from-" + q.from.Format(time.DateOnly)
	}
	if !q.to.IsZero() {
		name += "-to-" + q.to.Format(time.DateOnly)
	}
	return name + ".xlsx"
}
