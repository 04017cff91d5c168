package notifications

import (
	"net/http"
	"time"

	"github.com/NordCoder/StillbirthNotify/internal/domain/notification"
	"github.com/NordCoder/StillbirthNotify/internal/domain/role"
	"github.com/NordCoder/StillbirthNotify/internal/services/api-gateway/httpx"
)

type Server struct {
	uc     *Usecase
	access httpx.AccessChecker
}

func NewServer(uc *Usecase, access httpx.AccessChecker) *Server {
	return &Server{uc: uc, access: access}
}

func (s *Server) Routes() []httpx.Route {
	return []httpx.Route{
		{Method: http.MethodPost, Pattern: "/v1/notifications", Perm: role.NotificationsWrite, Handle: s.Create},
		{Method: http.MethodGet, Pattern: "/v1/notifications/{id}", Perm: role.NotificationsRead, Handle: s.Get},
	}
}

type babyRequest struct {
	Sex            notification.Sex     `json:"sex"`
	Outcome        notification.Outcome `json:"outcome"`
	BirthWeight    int                  `json:"birth_weight"`
	GestationWeeks int                  `json:"gestation_weeks"`
	Place          notification.Place   `json:"place"`
}

type createRequest struct {
	LocationID         int64               `json:"location_id"`
	DateOfNotification string              `json:"date_of_notification"`
	Time               string              `json:"time"`
	Mother             notification.Mother `json:"mother"`
	Babies             []babyRequest       `json:"babies"`
}

func (s *Server) Create(w http.ResponseWriter, r *http.Request, _ map[string]string) error {
	var req createRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	p, ok := httpx.PrincipalFrom(r.Context())
	if !ok {
		return httpx.ErrUnauthenticated
	}

	date, err := time.Parse(time.DateOnly, req.DateOfNotification)
	if err != nil {
		return httpx.Invalid("date_of_notification must be YYYY-MM-DD")
	}
	if req.LocationID == 0 {
		req.LocationID = p.LocationID
	}
	if err := httpx.RequireAccess(r.Context(), s.access, req.LocationID); err != nil {
		return err
	}

	n := &notification.Notification{
		LocationID:         req.LocationID,
		ReporterID:         p.UserID,
		DateOfNotification: date,
		Time:               req.Time,
		Mother:             req.Mother,
		Babies:             make([]notification.Baby, 0, len(req.Babies)),
	}
	for _, b := range req.Babies {
		n.Babies = append(n.Babies, notification.Baby{
			Sex:            b.Sex,
			Outcome:        b.Outcome,
			BirthWeight:    b.BirthWeight,
			GestationWeeks: b.GestationWeeks,
			Place:          b.Place,
		})
	}

	if err := s.uc.Create(r.Context(), n); err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusCreated, n)
	return nil
}

func (s *Server) Get(w http.ResponseWriter, r *http.Request, params map[string]string) error {
	id, err := httpx.PathInt64(params, "id")
	if err != nil {
		return err
	}
	n, err := s.uc.Get(r.Context(), id)
	if err != nil {
		return err
	}
	if err := httpx.RequireAccess(r.Context(), s.access, n.LocationID); err != nil {
		return err
	}
	httpx.WriteJSON(w, http.StatusOK, n)
	return nil
}
