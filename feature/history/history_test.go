package history

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"listing-sync/core/broker"
	brokermocks "listing-sync/core/broker/mocks"
	"listing-sync/core/database"
	"listing-sync/core/reconcile"
	storagemocks "listing-sync/core/storage/mocks"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/minio/minio-go/v7"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func runResult(id string, started time.Time) *reconcile.RunResult {
	return &reconcile.RunResult{
		RunID:      id,
		Status:     reconcile.RunSucceeded,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
		Created:    []string{"a"},
		Updated:    []string{"b", "c"},
		Deleted:    []string{"d"},
		Failed:     []reconcile.Failure{{Key: "L7", Action: reconcile.ActionCreate, Cause: "422"}},
		Summary:    reconcile.PlanSummary{Listings: 3, Items: 3},
	}
}

func TestNewSyncRun(t *testing.T) {
	started := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	row, err := NewSyncRun(runResult("run-1", started))
	require.NoError(t, err)

	assert.Equal(t, "run-1", row.RunID)
	assert.Equal(t, "succeeded", row.Status)
	assert.Equal(t, int64(90000), row.DurationMs)
	assert.Equal(t, 1, row.Created)
	assert.Equal(t, 2, row.Updated)
	assert.Equal(t, 1, row.Deleted)
	assert.Equal(t, 1, row.Failed)
	assert.JSONEq(t, `[{"key":"L7","action":"create","cause":"422"}]`, row.Failures)

	empty, err := NewSyncRun(&reconcile.RunResult{RunID: "run-2"})
	require.NoError(t, err)
	assert.Empty(t, empty.Failures)
}

func TestDBSink_SQLite(t *testing.T) {
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)

	sink, err := NewDBSink(db)
	require.NoError(t, err)
	ctx := context.Background()

	older := time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)
	require.NoError(t, sink.Report(ctx, runResult("run-1", older)))
	require.NoError(t, sink.Report(ctx, runResult("run-2", older.Add(24*time.Hour))))

	rows, err := sink.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "run-2", rows[0].RunID)
	assert.Equal(t, "run-1", rows[1].RunID)

	// run_id is unique
	assert.Error(t, sink.Report(ctx, runResult("run-1", older)))
}

func TestDBSink_InsertFailure(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	sqlMock.ExpectBegin()
	sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_runs`")).WillReturnError(errors.New("disk full"))
	sqlMock.ExpectRollback()

	sink := &DBSink{db: gormDB}
	err = sink.Report(context.Background(), runResult("run-1", time.Now()))
	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestNewDBSink_NilDB(t *testing.T) {
	_, err := NewDBSink(nil)
	assert.Error(t, err)
}

func TestArchiveSink(t *testing.T) {
	client := new(storagemocks.Client)
	sink := NewArchiveSink(client, "listing-sync", "reports")
	result := runResult("run-1", time.Date(2024, 5, 1, 23, 30, 0, 0, time.UTC))

	assert.Equal(t, "reports/2024-05-01/run-1.json", sink.ObjectKey(result))

	client.On("PutObject", mock.Anything, "listing-sync", "reports/2024-05-01/run-1.json",
		mock.Anything, mock.AnythingOfType("int64"),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool { return o.ContentType == "application/json" }),
	).Return(minio.UploadInfo{}, nil).Once()

	require.NoError(t, sink.Report(context.Background(), result))
	client.AssertExpectations(t)

	client.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("no such bucket"))
	assert.ErrorContains(t, sink.Report(context.Background(), result), "no such bucket")
}

func TestBrokerSink(t *testing.T) {
	ch := new(brokermocks.Channel)
	ch.On("ExchangeDeclare", "listing_sync", "topic", true, false, false, false, amqp.Table(nil)).Return(nil)

	var published amqp.Publishing
	ch.On("PublishWithContext", mock.Anything, "listing_sync", "run.completed", false, false, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(5).(amqp.Publishing) }).
		Return(nil)

	p, err := broker.NewPublisher(ch, broker.Config{Exchange: "listing_sync", RoutingKey: "run.completed"}, nil)
	require.NoError(t, err)

	result := runResult("run-1", time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC))
	require.NoError(t, NewBrokerSink(p).Report(context.Background(), result))

	assert.Equal(t, "run-1", published.MessageId)
	var n Notification
	require.NoError(t, json.Unmarshal(published.Body, &n))
	assert.Equal(t, reconcile.RunSucceeded, n.Status)
	assert.Equal(t, 2, n.Updated)
	assert.Equal(t, 1, n.Failed)
}

type stubSink struct {
	name string
	err  error
	got  []string
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Report(_ context.Context, r *reconcile.RunResult) error {
	s.got = append(s.got, r.RunID)
	return s.err
}

func TestFanout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	bad := &stubSink{name: "bad", err: errors.New("down")}
	good := &stubSink{name: "good"}

	failed := Fanout(context.Background(), zap.New(core), []ReportSink{bad, good}, &reconcile.RunResult{RunID: "run-9"})

	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"run-9"}, bad.got)
	assert.Equal(t, []string{"run-9"}, good.got, "a failing sink does not stop the others")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "bad", logs.All()[0].ContextMap()["sink"])

	assert.Zero(t, Fanout(context.Background(), nil, nil, &reconcile.RunResult{}))
}
