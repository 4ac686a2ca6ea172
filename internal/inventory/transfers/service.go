package transfers

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"TSUMUGI-backend/internal/platform/auth"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ActivityRecorder: 振替成立時に操作ログを残す（main で activity.Service を渡す）
type ActivityRecorder interface {
	Record(ctx context.Context, actorID, module, action, detail string)
}

// ===== Service本体 =====

type Service struct {
	db       *sql.DB
	store    *Store
	clock    Clock
	id       IDGen
	recorder ActivityRecorder
}

func NewService(db *sql.DB, recorder ActivityRecorder) *Service {
	return &Service{
		db:       db,
		store:    NewStore(db),
		clock:    realClock{},
		id:       ulidGen{},
		recorder: recorder,
	}
}

// CreateTransfer: 振替コマンドの実行。
// ワークフローの最終確認を通過したコマンドがここに来るが、
// APIから直接叩かれる経路もあるため全バリデーションをやり直す。
func (s *Service) CreateTransfer(ctx context.Context, actor auth.Actor, req CreateTransferRequest) (*TransferResponse, error) {
	if req.ProductID <= 0 {
		return nil, ErrValidation("product_id", "product_id is required")
	}
	if req.LotID <= 0 {
		return nil, ErrValidation("lot_id", "select a lot to transfer from")
	}
	if req.Quantity <= 0 {
		return nil, ErrValidation("quantity", "quantity must be a positive number")
	}
	if req.ToLocationID <= 0 {
		return nil, ErrValidation("to_location_id", "select a destination location")
	}

	// ロットの現在値でバリデーション（Tx内で再チェックされる）
	lot, err := s.store.GetLotForTransfer(ctx, req.LotID)
	if err != nil {
		return nil, err
	}
	if lot.ProductID != req.ProductID {
		return nil, ErrValidation("lot_id", "lot does not belong to product")
	}
	if lot.Status != "active" || lot.Quantity <= 0 {
		return nil, ErrConflict("lot is not offerable for transfer")
	}
	if req.Quantity > lot.Quantity {
		return nil, ErrValidation("quantity", "quantity exceeds lot quantity")
	}
	total, err := s.store.TotalActiveStock(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > total {
		return nil, ErrValidation("quantity", "quantity exceeds total stock")
	}
	if lot.LocationID == req.ToLocationID {
		return nil, ErrValidation("to_location_id", "source and destination are the same location")
	}

	// 拠点スコープ付きロールのみ、振替元拠点の権限を確認する。
	// グローバルロール(super_admin)はこのチェック自体を行わない。
	if auth.RoleIsLocationScoped(actor.Role) && !actor.CanTransferFrom(lot.LocationID) {
		return nil, ErrPermissionDenied("この拠点から振替する権限がありません")
	}

	transferULID, err := s.id.New()
	if err != nil {
		return nil, err
	}
	newLotULID, err := s.id.New()
	if err != nil {
		return nil, err
	}

	m := &Transfer{
		TransferULID:  transferULID,
		ProductID:     req.ProductID,
		LotID:         req.LotID,
		ToLocationID:  req.ToLocationID,
		Quantity:      req.Quantity,
		TransferredBy: actor.ID,
		TransferredAt: s.clock.Now().UTC(),
	}
	if req.Notes != nil && *req.Notes != "" {
		m.Notes = sql.NullString{String: *req.Notes, Valid: true}
	}

	if err := s.store.ExecCreateTransfer(ctx, m, newLotULID); err != nil {
		return nil, err
	}

	row, err := s.store.GetByID(ctx, m.TransferID)
	if err != nil {
		// 振替自体は成立しているので読み戻し失敗だけログに残す
		log.Printf("[WARN] transfer %s created but readback failed: %v", transferULID, err)
		resp := buildTransferResponse(&transferRow{Transfer: *m})
		return &resp, nil
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, actor.ID, "transfers", "create",
			fmt.Sprintf("%s: %d (%s -> %s)", row.ProductName, row.Quantity, row.FromLocationName, row.ToLocationName))
	}

	resp := buildTransferResponse(row)
	return &resp, nil
}

// 振替単一取得（ID or ULID）
func (s *Service) GetByKey(ctx context.Context, key string) (*TransferResponse, error) {
	if key == "" {
		return nil, ErrInvalid("id or ulid is required")
	}

	// 数値として解釈できればID検索
	if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > 0 {
		row, err := s.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		resp := buildTransferResponse(row)
		return &resp, nil
	}

	row, err := s.store.GetByULID(ctx, key)
	if err != nil {
		return nil, err
	}
	resp := buildTransferResponse(row)
	return &resp, nil
}

// 振替履歴一覧
func (s *Service) List(ctx context.Context, f TransferFilter, p Page) (*TransferListResponse, error) {
	items, total, err := s.store.List(ctx, f, p)
	if err != nil {
		return nil, err
	}
	out := TransferListResponse{Items: make([]TransferResponse, 0, len(items)), Total: total}
	for i := range items {
		out.Items = append(out.Items, buildTransferResponse(&items[i]))
	}
	return &out, nil
}

// ヘルパー関数
func buildTransferResponse(r *transferRow) TransferResponse {
	resp := TransferResponse{
		TransferID:       r.TransferID,
		TransferULID:     r.TransferULID,
		ProductID:        r.ProductID,
		ProductName:      r.ProductName,
		LotID:            r.LotID,
		NewLotID:         r.NewLotID,
		FromLocationID:   r.FromLocationID,
		FromLocationName: r.FromLocationName,
		ToLocationID:     r.ToLocationID,
		ToLocationName:   r.ToLocationName,
		Quantity:         r.Quantity,
		TransferredBy:    r.TransferredBy,
		TransferredAt:    r.TransferredAt,
	}
	if r.Notes.Valid {
		val := r.Notes.String
		resp.Notes = &val
	}
	// 振替先には新しいロットが作成される（成功サマリ）
	resp.Summary = fmt.Sprintf("%s を %d 振替しました（%s → %s）",
		r.ProductName, r.Quantity, r.FromLocationName, r.ToLocationName)
	return resp
}
