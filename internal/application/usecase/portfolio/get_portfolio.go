package portfolio

import (
	"context"
	"fmt"

	"github.com/khoahotran/portfolio-editor/internal/domain/portfolio"
)

type GetPortfolioUseCase struct {
	repo portfolio.Repository
}

func NewGetPortfolioUseCase(repo portfolio.Repository) *GetPortfolioUseCase {
	return &GetPortfolioUseCase{repo: repo}
}

type GetPortfolioOutput struct {
	Record *portfolio.Record
}

// Execute returns the persisted record, seeding the placeholder on first use.
func (uc *GetPortfolioUseCase) Execute(ctx context.Context) (*GetPortfolioOutput, error) {
	rec, err := uc.repo.LoadOrInit(ctx)
	if err != nil {
		return nil, fmt.Errorf("get portfolio failed: %w", err)
	}
	return &GetPortfolioOutput{Record: rec}, nil
}
