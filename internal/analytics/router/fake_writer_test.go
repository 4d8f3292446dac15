package router

import (
	"context"

	"github.com/inventiapp/stocktrack-backend/internal/analytics/types"
)

type fakeWriter struct {
	rows []types.SaleFactRow
	err  error
}

func (f *fakeWriter) InsertSaleFact(_ context.Context, row types.SaleFactRow) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, row)
	return nil
}
