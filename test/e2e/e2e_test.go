//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// The api-gateway under test must bootstrap its admin from
// BOOTSTRAP_ADMIN_EMAIL / BOOTSTRAP_ADMIN_PASSWORD matching the values below.
type cfg struct {
	APIBase       string
	MailhogBase   string
	AdminEmail    string
	AdminPassword string
	WaitEmail     time.Duration
}

func loadCfg(t *testing.T) cfg {
	wait, err := time.ParseDuration(getenv("E2E_WAIT_EMAIL", "30s"))
	require.NoError(t, err)
	return cfg{
		APIBase:       getenv("E2E_API_BASE", "http://localhost:8080"),
		MailhogBase:   getenv("E2E_MAILHOG_BASE", "http://localhost:8025"),
		AdminEmail:    getenv("E2E_ADMIN_EMAIL", "admin@stillbirth.local"),
		AdminPassword: getenv("E2E_ADMIN_PASSWORD", "change-me-please"),
		WaitEmail:     wait,
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

type authResp struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID         int64 `json:"id"`
		LocationID int64 `json:"location_id"`
	} `json:"user"`
}

type idResp struct {
	ID int64 `json:"id"`
}

type mailhogMessages struct {
	Total int          `json:"total"`
	Items []mailhogMsg `json:"items"`
}

type mailhogMsg struct {
	To []struct {
		Mailbox string `json:"Mailbox"`
		Domain  string `json:"Domain"`
	} `json:"To"`
	Content struct {
		Headers map[string][]string `json:"Headers"`
	} `json:"Content"`
}

func call(t *testing.T, method, url, bearer string, in, out any, want int) {
	t.Helper()
	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	require.Equalf(t, want, resp.StatusCode, "%s %s: %s", method, url, string(body))
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
}

func signIn(t *testing.T, c cfg, email, password string) authResp {
	t.Helper()
	var a authResp
	call(t, http.MethodPost, c.APIBase+"/v1/auth/sign-in", "",
		map[string]string{"email": email, "password": password}, &a, http.StatusOK)
	require.NotEmpty(t, a.AccessToken)
	return a
}

func waitHealthy(t *testing.T, base string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, time.Minute, time.Second)
}

func mailedTo(t *testing.T, c cfg) map[string]string {
	t.Helper()
	resp, err := http.Get(c.MailhogBase + "/api/v2/messages")
	require.NoError(t, err)
	defer resp.Body.Close()
	var out mailhogMessages
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))

	got := map[string]string{}
	for _, m := range out.Items {
		subj := ""
		if v := m.Content.Headers["Subject"]; len(v) > 0 {
			subj = v[0]
		}
		for _, to := range m.To {
			got[strings.ToLower(to.Mailbox+"@"+to.Domain)] = subj
		}
	}
	return got
}

func Test_NotificationAlertsTheHierarchy(t *testing.T) {
	c := loadCfg(t)
	waitHealthy(t, c.APIBase)

	admin := signIn(t, c, c.AdminEmail, c.AdminPassword)
	tag := time.Now().UnixNano()

	mkLoc := func(name, typ string, parent int64) int64 {
		var r idResp
		call(t, http.MethodPost, c.APIBase+"/v1/locations", admin.AccessToken,
			map[string]any{"name": fmt.Sprintf("%s-%d", name, tag), "type": typ, "parent_id": parent}, &r, http.StatusCreated)
		return r.ID
	}
	county := mkLoc("county", "county", admin.User.LocationID)
	sub := mkLoc("sub", "subcounty", county)
	facility := mkLoc("facility", "facility", sub)

	countyEmail := fmt.Sprintf("county-%d@e2e.dev", tag)
	nurseEmail := fmt.Sprintf("nurse-%d@e2e.dev", tag)
	call(t, http.MethodPost, c.APIBase+"/v1/users", admin.AccessToken, map[string]any{
		"email": countyEmail, "password": "county-password", "role": "county", "location_id": county,
	}, nil, http.StatusCreated)
	call(t, http.MethodPost, c.APIBase+"/v1/users", admin.AccessToken, map[string]any{
		"email": nurseEmail, "password": "nurse-password", "role": "facility", "location_id": facility,
	}, nil, http.StatusCreated)

	nurse := signIn(t, c, nurseEmail, "nurse-password")
	var created idResp
	call(t, http.MethodPost, c.APIBase+"/v1/notifications", nurse.AccessToken, map[string]any{
		"date_of_notification": time.Now().UTC().Format(time.DateOnly),
		"time":                 "03:20",
		"mother":               map[string]any{"age": 24, "parity": 0, "place_of_delivery": "facility"},
		"babies": []map[string]any{
			{"sex": "Male", "outcome": "Fresh still-birth", "birth_weight": 2300, "gestation_weeks": 36, "place": "facility"},
			{"sex": "Female", "outcome": "Fresh still-birth", "birth_weight": 2200, "gestation_weeks": 36, "place": "facility"},
		},
	}, &created, http.StatusCreated)
	require.Positive(t, created.ID)

	want := []string{nurseEmail, countyEmail, strings.ToLower(c.AdminEmail)}
	require.Eventually(t, func() bool {
		got := mailedTo(t, c)
		for _, w := range want {
			if !strings.Contains(got[w], fmt.Sprintf("#%d", created.ID)) {
				return false
			}
		}
		return true
	}, c.WaitEmail, time.Second, "every user up the hierarchy is alerted")

	var rows []map[string]any
	call(t, http.MethodGet, fmt.Sprintf("%s/v1/reports/preview?location_id=%d", c.APIBase, county), admin.AccessToken, nil, &rows, http.StatusOK)
	require.Len(t, rows, 2)
}
