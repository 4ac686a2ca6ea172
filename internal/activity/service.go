package activity

import (
	"context"
	"database/sql"
	"log"
)

type Service struct {
	store *Store
}

func NewService(sqlDB *sql.DB) *Service {
	return &Service{store: NewStore(sqlDB)}
}

// Record は操作ログを1件追記する。ログ書き込みの失敗で本処理を
// 巻き戻したくないので、エラーは握りつぶしてサーバログにだけ出す。
func (s *Service) Record(ctx context.Context, actorID, module, action, detail string) {
	a := &Activity{ActorID: actorID, Module: module, Action: action, Detail: detail}
	if err := s.store.Insert(ctx, a); err != nil {
		log.Printf("[WARN] activity record failed (module=%s action=%s): %v", module, action, err)
	}
}

func (s *Service) List(ctx context.Context, f ActivityFilter, p Page) (*ListActivitiesResponse, error) {
	if p.Limit <= 0 || p.Limit > 200 {
		p.Limit = 50
	}
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := ListActivitiesResponse{Total: total, Activities: make([]ActivityResponse, 0, len(items))}
	for i := range items {
		out.Activities = append(out.Activities, ActivityResponse{
			ActivityID: items[i].ActivityID,
			ActorID:    items[i].ActorID,
			Module:     items[i].Module,
			Action:     items[i].Action,
			Detail:     items[i].Detail,
			CreatedAt:  items[i].CreatedAt,
		})
	}
	return &out, nil
}
