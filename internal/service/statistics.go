package service

import (
	"context"
	"strconv"

	"github.com/iliyamo/training-events/internal/repository"
	"github.com/iliyamo/training-events/internal/utils"
)

var (
	statisticsHeadings = []string{"Логин", "ФИО", "Уровень", "Директор", "Мероприятие", "Месяц", "Год", "Статус"}
	notPassedHeadings  = []string{"Логин", "ФИО", "Уровень", "Директор"}
)

// Statistics returns one page of participation rows for the scope.
func (s *Service) Statistics(ctx context.Context, scope repository.Scope, role repository.Role, f repository.StatisticFilters, p *repository.Paging) (ListResult[repository.StatisticRow], error) {
	if _, err := s.users.GetByLgID(ctx, scope.LgID); err != nil {
		return ListResult[repository.StatisticRow]{}, err
	}
	rows, total, err := s.stats.WithEvents(ctx, scope, role, f, p)
	if err != nil {
		return ListResult[repository.StatisticRow]{}, err
	}
	return newListResult(rows, total, p), nil
}

// StatisticsExport runs the Statistics query without paging and flattens it.
func (s *Service) StatisticsExport(ctx context.Context, scope repository.Scope, role repository.Role, f repository.StatisticFilters) (Table, error) {
	directors, err := s.scopeDirectors(ctx, scope)
	if err != nil {
		return Table{}, err
	}
	rows, _, err := s.stats.WithEvents(ctx, scope, role, f, nil)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headings: statisticsHeadings, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		month, year := "", ""
		if r.TimeStartEvent != nil {
			month = utils.MonthRu(int(r.TimeStartEvent.Month()))
			year = strconv.Itoa(r.TimeStartEvent.Year())
		}
		t.Rows = append(t.Rows, []string{
			r.Login, r.Fio, levelCell(r.Level), directors[r.DirectorID],
			r.EventFullName, month, year, r.Status,
		})
	}
	return t, nil
}

// levelCell renders a level the way exported sheets have always shown it.
func levelCell(level int) string { return "Уровень " + strconv.Itoa(level) }

// NotPassed returns one page of users in scope that never passed an event.
func (s *Service) NotPassed(ctx context.Context, scope repository.Scope, f repository.StatisticFilters, p *repository.Paging) (ListResult[repository.NotPassedRow], error) {
	if _, err := s.users.GetByLgID(ctx, scope.LgID); err != nil {
		return ListResult[repository.NotPassedRow]{}, err
	}
	rows, total, err := s.stats.NotPassed(ctx, scope, f, p)
	if err != nil {
		return ListResult[repository.NotPassedRow]{}, err
	}
	return newListResult(rows, total, p), nil
}

func (s *Service) NotPassedExport(ctx context.Context, scope repository.Scope, f repository.StatisticFilters) (Table, error) {
	directors, err := s.scopeDirectors(ctx, scope)
	if err != nil {
		return Table{}, err
	}
	rows, _, err := s.stats.NotPassed(ctx, scope, f, nil)
	if err != nil {
		return Table{}, err
	}
	t := Table{Headings: notPassedHeadings, Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.Login, r.Fio, levelCell(r.Level), directors[r.DirectorID]})
	}
	return t, nil
}

// scopeDirectors maps director lg_id to fio for the export "Директор"
// column. A director scope only knows its own head.
func (s *Service) scopeDirectors(ctx context.Context, scope repository.Scope) (map[uint64]string, error) {
	head, err := s.users.GetByLgID(ctx, scope.LgID)
	if err != nil {
		return nil, err
	}
	if scope.Kind == repository.ScopeDirector {
		return map[uint64]string{head.LgID: head.Fio}, nil
	}
	return s.users.DirectorsForMagister(ctx, scope.LgID)
}
