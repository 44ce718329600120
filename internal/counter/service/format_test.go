package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	march2024 := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		seq      int64
		ref      time.Time
		pad      int
		want     string
	}{
		{
			name:     "instrument template with year and month",
			template: "STOCK/<seq>/<yyyy><mm>",
			seq:      0,
			ref:      march2024,
			pad:      5,
			want:     "STOCK/00001/202403",
		},
		{
			name:     "plain sequence without padding",
			template: "ROLE/<seq>",
			seq:      1,
			ref:      time.Date(1999, time.December, 31, 23, 59, 59, 0, time.UTC),
			pad:      1,
			want:     "ROLE/2",
		},
		{
			name:     "seq wider than pad is not truncated",
			template: "BANK/<seq>",
			seq:      99999,
			ref:      march2024,
			pad:      4,
			want:     "BANK/100000",
		},
		{
			name:     "repeated tokens all substituted",
			template: "<seq>-<seq>/<mm><mm>",
			seq:      7,
			ref:      march2024,
			pad:      2,
			want:     "08-08/0303",
		},
		{
			name:     "template without tokens unchanged",
			template: "FIXED",
			seq:      3,
			ref:      march2024,
			pad:      5,
			want:     "FIXED",
		},
		{
			name:     "unknown tokens left untouched",
			template: "X/<seq>/<dd>",
			seq:      0,
			ref:      march2024,
			pad:      2,
			want:     "X/01/<dd>",
		},
		{
			name:     "single digit month zero padded",
			template: "DEPO/<seq>/<yyyy><mm>",
			seq:      41,
			ref:      time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC),
			pad:      5,
			want:     "DEPO/00042/202501",
		},
		{
			name:     "december boundary",
			template: "<yyyy><mm>",
			seq:      0,
			ref:      time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC),
			pad:      1,
			want:     "202312",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.template, tt.seq, tt.ref, tt.pad))
		})
	}
}

func TestFormat_IsPure(t *testing.T) {
	ref := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	first := Format("BOND/<seq>/<yyyy><mm>", 10, ref, 5)
	for range 100 {
		assert.Equal(t, first, Format("BOND/<seq>/<yyyy><mm>", 10, ref, 5))
	}
}
