package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	counterModels "fundvault/internal/counter/models"
	counterService "fundvault/internal/counter/service"
	counterStore "fundvault/internal/counter/store"
	"fundvault/internal/record"
	"fundvault/internal/uniqueness"
	dErrors "fundvault/pkg/domain-errors"
	"fundvault/pkg/platform/audit"
	auditMemory "fundvault/pkg/platform/audit/store/memory"
	"fundvault/pkg/requestcontext"
)

type StockSuite struct {
	suite.Suite
	service *Service
}

func TestStockSuite(t *testing.T) {
	suite.Run(t, new(StockSuite))
}

func (s *StockSuite) SetupTest() {
	ctx := context.Background()

	counters := counterStore.NewInMemory()
	s.Require().NoError(counters.Seed(ctx, counterModels.Seed()))
	counterSvc, err := counterService.New(counters)
	s.Require().NoError(err)

	recorder, err := audit.NewRecorder(auditMemory.NewInMemoryStore())
	s.Require().NoError(err)

	s.service, err = NewService(record.Deps{
		Store:    record.NewInMemoryStore(),
		Counters: counterSvc,
		Recorder: recorder,
		Unique:   uniqueness.NewInMemory(),
	})
	s.Require().NoError(err)
}

func (s *StockSuite) ctx() context.Context {
	ctx := requestcontext.WithActor(context.Background(), requestcontext.Actor{
		ID: "user-1", Name: "Back Office", Permissions: []string{"stocks:*"},
	})
	return requestcontext.WithTime(ctx, time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC))
}

func (s *StockSuite) TestKindsUseSeparateCounters() {
	regular, err := s.service.Create(s.ctx(), audit.Document{"product": "AAAA"}, record.StatusActive)
	s.Require().NoError(err)
	s.Equal("STOCK/00001/202403", regular.Ref)
	s.Equal(KindRegular, regular.Data["kind"], "kind defaults to regular")

	dividend, err := s.service.Create(s.ctx(), audit.Document{
		"product": "BBBB", "kind": KindDividend,
	}, record.StatusActive)
	s.Require().NoError(err)
	s.Equal("STOCK-D/00001/202403", dividend.Ref)

	payment, err := s.service.Create(s.ctx(), audit.Document{
		"product": "CCCC", "kind": KindPayment,
	}, record.StatusActive)
	s.Require().NoError(err)
	s.Equal("STOCK-P/00001/202403", payment.Ref)

	s.Run("each kind sequences independently", func() {
		second, err := s.service.Create(s.ctx(), audit.Document{"product": "DDDD"}, record.StatusActive)
		s.Require().NoError(err)
		s.Equal("STOCK/00002/202403", second.Ref)
	})
}

func (s *StockSuite) TestUnknownKindRejected() {
	_, err := s.service.Create(s.ctx(), audit.Document{"kind": "imaginary"}, record.StatusActive)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *StockSuite) TestListFiltersByKind() {
	for _, kind := range []string{KindRegular, KindDividend, KindDividend} {
		_, err := s.service.Create(s.ctx(), audit.Document{"kind": kind}, record.StatusActive)
		s.Require().NoError(err)
	}

	dividends, err := s.service.List(s.ctx(), record.ListFilter{
		Fields: map[string]string{"kind": KindDividend},
	})
	s.Require().NoError(err)
	s.Len(dividends, 2)

	all, err := s.service.List(s.ctx(), record.ListFilter{})
	s.Require().NoError(err)
	s.Len(all, 3)
}
