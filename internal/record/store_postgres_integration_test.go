//go:build integration

package record_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fundvault/internal/record"
	"fundvault/pkg/platform/audit"
	"fundvault/pkg/platform/sentinel"
	"fundvault/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *record.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())

	store, err := record.NewPostgresStore(s.postgres.DB, "deposits")
	s.Require().NoError(err)
	s.store = store
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "deposits"))
}

// document builds a canonical deposit document with nested objects, arrays and
// numeric fields, the shapes that have to survive the JSONB round trip.
func (s *PostgresStoreSuite) document(form string) audit.Document {
	doc, err := audit.DocumentOf(map[string]any{
		"form_number": form,
		"owner_id":    "owner-1",
		"net_amount":  1050000,
		"interest": map[string]any{
			"rate":        5.25,
			"is_rollover": false,
		},
		"interest_schedule": []map[string]any{
			{"uuid": record.NewID(), "amount": 525000, "received_amount": 0},
			{"uuid": record.NewID(), "amount": 525000, "received_amount": 0},
		},
	})
	s.Require().NoError(err)
	return doc
}

func (s *PostgresStoreSuite) insert(form string) record.Record {
	rec := record.Record{
		ID:          record.NewID(),
		Ref:         form,
		Status:      record.StatusActive,
		Data:        s.document(form),
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
		CreatedByID: "user-1",
	}
	s.Require().NoError(s.store.Insert(context.Background(), rec))
	return rec
}

func (s *PostgresStoreSuite) TestGetUnknownRecord() {
	_, err := s.store.Get(context.Background(), record.NewID())
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

// TestReadBackIsDiffStable verifies that a document read back from storage
// diffs clean against the document that was written: no phantom changes from
// the round trip, and a real patch still surfaces as exactly its own field.
func (s *PostgresStoreSuite) TestReadBackIsDiffStable() {
	ctx := context.Background()
	rec := s.insert("DEPO/00001/202403")

	got, err := s.store.Get(ctx, rec.ID)
	s.Require().NoError(err)

	changes := audit.BuildChanges(rec.Data, got.Data)
	s.Empty(changes.Summary.Fields, "round trip must not manufacture changes")

	patched := audit.MergeDefined(got.Data, audit.Document{"notes": "rolled over"})
	changes = audit.BuildChanges(got.Data, patched)
	s.Equal([]string{"notes"}, changes.Summary.Fields)
}

func (s *PostgresStoreSuite) TestDuplicateFormNumberOnInsert() {
	ctx := context.Background()
	s.insert("DEPO/00002/202403")

	dup := record.Record{
		ID:          record.NewID(),
		Ref:         "DEPO/00002/202403",
		Status:      record.StatusActive,
		Data:        s.document("DEPO/00002/202403"),
		CreatedAt:   time.Now().UTC(),
		CreatedByID: "user-1",
	}
	err := s.store.Insert(ctx, dup)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresStoreSuite) TestDuplicateFormNumberOnUpdate() {
	ctx := context.Background()
	first := s.insert("DEPO/00003/202403")
	second := s.insert("DEPO/00004/202403")

	second.Data["form_number"] = first.Ref
	err := s.store.Update(ctx, second)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrConflict))
}

func (s *PostgresStoreSuite) TestUpdateUnknownRecord() {
	rec := record.Record{
		ID:     record.NewID(),
		Ref:    "DEPO/00005/202403",
		Status: record.StatusActive,
		Data:   s.document("DEPO/00005/202403"),
	}
	err := s.store.Update(context.Background(), rec)
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestListSkipsArchivedByDefault() {
	ctx := context.Background()
	live := s.insert("DEPO/00006/202403")

	archived := s.insert("DEPO/00007/202403")
	archived.IsArchived = true
	now := time.Now().UTC().Truncate(time.Microsecond)
	archived.ArchivedAt = &now
	archived.ArchivedByID = "user-1"
	s.Require().NoError(s.store.Update(ctx, archived))

	records, err := s.store.List(ctx, record.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(live.ID, records[0].ID)

	records, err = s.store.List(ctx, record.ListFilter{IncludeArchived: true})
	s.Require().NoError(err)
	s.Len(records, 2)
}
