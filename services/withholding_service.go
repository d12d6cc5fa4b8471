package services

import (
	"context"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	apperrors "payportal/errors"
	"payportal/models"
	"payportal/services/logger"
)

// WithholdingTable is an immutable in-memory view of one year's simplified
// income-tax table, organized for bracket lookup.
type WithholdingTable struct {
	year    int
	byDep   map[int][]models.WithholdingCell
	minDep  int
	maxDep  int
	isEmpty bool
}

// NewWithholdingTable builds a lookup table from raw cells. Cells for other
// years are ignored.
func NewWithholdingTable(year int, cells []models.WithholdingCell) *WithholdingTable {
	t := &WithholdingTable{
		year:  year,
		byDep: map[int][]models.WithholdingCell{},
	}
	for _, c := range cells {
		if c.Year != year {
			continue
		}
		t.byDep[c.Dependents] = append(t.byDep[c.Dependents], c)
	}
	t.isEmpty = len(t.byDep) == 0
	first := true
	for dep, col := range t.byDep {
		sort.Slice(col, func(i, j int) bool { return col[i].Wage < col[j].Wage })
		t.byDep[dep] = col
		if first || dep < t.minDep {
			t.minDep = dep
		}
		if first || dep > t.maxDep {
			t.maxDep = dep
		}
		first = false
	}
	return t
}

// Lookup returns the withheld income and local tax for a wage. Dependent
// counts outside the table clamp to the nearest column; wages outside the
// bracket range clamp to the lowest or highest bracket.
func (t *WithholdingTable) Lookup(year, dependents int, wage int64) (int64, int64, error) {
	if t == nil || t.isEmpty || year != t.year {
		return 0, 0, apperrors.NewAppError(apperrors.ErrCodeNoWithholding, "withholding table not loaded for year", nil)
	}
	if dependents < t.minDep {
		dependents = t.minDep
	}
	if dependents > t.maxDep {
		dependents = t.maxDep
	}
	col, ok := t.byDep[dependents]
	for !ok && dependents > t.minDep {
		// Sparse columns: fall back to the nearest lower column.
		dependents--
		col, ok = t.byDep[dependents]
	}
	if !ok {
		return 0, 0, apperrors.NewAppError(apperrors.ErrCodeNoWithholding, "withholding table not loaded for year", nil)
	}

	// Largest bracket whose lower bound does not exceed the wage, clamping
	// to the lowest bracket below the range.
	i := sort.Search(len(col), func(i int) bool { return col[i].Wage > wage })
	if i > 0 {
		i--
	}
	cell := col[i]
	return cell.IncomeTax, cell.LocalIncomeTax, nil
}

// WithholdingService loads year tables from the database with a redis cache
// in front, and owns table replacement.
type WithholdingService struct {
	db     *gorm.DB
	rdb    *redis.Client
	logger logger.Logger
}

// WithholdingServiceOptions configures a WithholdingService.
type WithholdingServiceOptions struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Logger logger.Logger
}

func NewWithholdingService(opts WithholdingServiceOptions) *WithholdingService {
	return &WithholdingService{
		db:     opts.DB,
		rdb:    opts.Redis,
		logger: opts.Logger,
	}
}

// TableFor loads the table for one year. An empty year is an error: the
// caller decides whether that blocks the operation or degrades to zero taxes.
func (s *WithholdingService) TableFor(ctx context.Context, year int) (*WithholdingTable, error) {
	cacheKey := WithholdingCacheKey(year)
	var cells []models.WithholdingCell

	if s.rdb != nil {
		if found, err := GetFromRedis(ctx, s.rdb, cacheKey, &cells); err == nil && found {
			return s.tableFromCells(year, cells)
		}
	}

	if err := s.db.WithContext(ctx).Where("year = ?", year).Find(&cells).Error; err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to load withholding table", err)
	}
	if s.rdb != nil && len(cells) > 0 {
		if err := SetToRedis(ctx, s.rdb, cacheKey, cells, 24*time.Hour); err != nil && s.logger != nil {
			s.logger.Warn("withholding cache set failed: %v", err)
		}
	}
	return s.tableFromCells(year, cells)
}

func (s *WithholdingService) tableFromCells(year int, cells []models.WithholdingCell) (*WithholdingTable, error) {
	t := NewWithholdingTable(year, cells)
	if t.isEmpty {
		return nil, apperrors.NewAppError(apperrors.ErrCodeNoWithholding, "no withholding table for year", nil)
	}
	return t, nil
}

// CellUpload is one uploaded bracket entry.
type CellUpload struct {
	Dependents     int   `json:"dependents" binding:"required,min=1"`
	Wage           int64 `json:"wage" binding:"min=0"`
	IncomeTax      int64 `json:"incomeTax" binding:"min=0"`
	LocalIncomeTax int64 `json:"localIncomeTax" binding:"min=0"`
}

// ReplaceYear atomically swaps a year's table for the uploaded cells and
// invalidates the cache. Duplicate (dependents, wage) pairs are rejected
// before touching the database.
func (s *WithholdingService) ReplaceYear(ctx context.Context, year int, uploads []CellUpload) (int, error) {
	if len(uploads) == 0 {
		return 0, apperrors.NewAppError(apperrors.ErrCodeValidation, "empty withholding table upload", nil)
	}
	seen := map[[2]int64]bool{}
	cells := make([]models.WithholdingCell, 0, len(uploads))
	for _, u := range uploads {
		key := [2]int64{int64(u.Dependents), u.Wage}
		if seen[key] {
			return 0, apperrors.NewAppError(apperrors.ErrCodeValidation, "duplicate withholding bracket in upload", nil)
		}
		seen[key] = true
		cells = append(cells, models.WithholdingCell{
			Year:           year,
			Dependents:     u.Dependents,
			Wage:           u.Wage,
			IncomeTax:      u.IncomeTax,
			LocalIncomeTax: u.LocalIncomeTax,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("year = ?", year).Delete(&models.WithholdingCell{}).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(cells, 500).Error
	})
	if err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to replace withholding table", err)
	}

	if s.rdb != nil {
		if err := DeleteFromRedis(ctx, s.rdb, WithholdingCacheKey(year)); err != nil && s.logger != nil {
			s.logger.Error("withholding cache invalidation failed: %v", err)
		}
	}
	if s.logger != nil {
		s.logger.Info("withholding table replaced: year=%d cells=%d", year, len(cells))
	}
	return len(cells), nil
}

// Years lists the years with a loaded table, newest first.
func (s *WithholdingService) Years(ctx context.Context) ([]int, error) {
	var years []int
	err := s.db.WithContext(ctx).
		Model(&models.WithholdingCell{}).
		Distinct("year").
		Order("year desc").
		Pluck("year", &years).Error
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrCodeDBError, "failed to list withholding years", err)
	}
	return years, nil
}
