//go:build integration

package integration

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func seedNotification(t *testing.T, cfg Cfg, locationID, reporterID int64) int64 {
	t.Helper()
	db := DBOpen(t, cfg.DBDSN)
	var id int64
	require.NoError(t, db.QueryRow(`
    INSERT INTO notifications (location_id, reporter_id, date_of_notification, time, mother_age, mother_parity, place_of_delivery)
    VALUES ($1, $2, current_date, '06:10', 27, 0, 'home') RETURNING id`, locationID, reporterID).Scan(&id))
	_, err := db.Exec(`
    INSERT INTO babies (notification_id, sex, outcome, birth_weight, gestation_weeks, place)
    VALUES ($1, 'Male', 'Macerated still-birth', 1800, 33, 'home')`, id)
	require.NoError(t, err)
	return id
}

func publishCreated(t *testing.T, cfg Cfg, notificationID, locationID int64) {
	t.Helper()
	msg, err := structpb.NewStruct(map[string]any{
		"notification_id": float64(notificationID),
		"location_id":     float64(locationID),
		"ts":              time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
	PublishProto(t, cfg.KafkaBootstrap, cfg.AlertTopic, []byte(fmt.Sprint(locationID)), msg)
}

func TestEmailNotifier_AlertsEveryAncestor(t *testing.T) {
	cfg := LoadCfg()
	MailhogPurge(t, cfg.MailhogAPI)
	db := DBOpen(t, cfg.DBDSN)

	tag := fmt.Sprintf("en-%d", time.Now().UnixNano())
	tree := SeedTree(t, db, tag)
	reporter := SeedUser(t, db, tag+"-nurse@example.org", "nurse-password", "facility", tree.Facility)
	SeedUser(t, db, tag+"-county@example.org", "county-password", "county", tree.County)
	SeedUser(t, db, tag+"-national@example.org", "national-password", "national", tree.National)

	id := seedNotification(t, cfg, tree.Facility, reporter)
	publishCreated(t, cfg, id, tree.Facility)

	rep := WaitMailhogCount(t, cfg.MailhogAPI, 3, 30*time.Second)
	require.Equal(t, 3, rep.Total)
	assert.ElementsMatch(t, []string{
		tag + "-nurse@example.org", tag + "-county@example.org", tag + "-national@example.org",
	}, rep.Recipients())

	require.Eventually(t, func() bool { return CountDeliveries(t, db, id) == 3 }, 10*time.Second, 200*time.Millisecond)

	// a redelivered event must not mail anyone twice
	MailhogPurge(t, cfg.MailhogAPI)
	publishCreated(t, cfg, id, tree.Facility)
	ExpectNoMailhog(t, cfg.MailhogAPI, 6*time.Second)
	assert.Equal(t, 3, CountDeliveries(t, db, id))
}

func TestEmailNotifier_InvalidIDIgnored(t *testing.T) {
	cfg := LoadCfg()
	MailhogPurge(t, cfg.MailhogAPI)
	publishCreated(t, cfg, 0, 1)
	ExpectNoMailhog(t, cfg.MailhogAPI, 6*time.Second)
}
