package transfers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"TSUMUGI-backend/internal/inventory/locations"
	"TSUMUGI-backend/internal/inventory/lots"
	"TSUMUGI-backend/internal/platform/auth"
)

// 振替ウィザードのステップ
type Step string

const (
	StepLotSelection    Step = "lot_selection"
	StepTransferDetails Step = "transfer_details"
	StepConfirmation    Step = "confirmation"
)

// ワークフローの終了結果
type OutcomeKind string

const (
	OutcomeCancelled OutcomeKind = "cancelled"
	OutcomeSubmitted OutcomeKind = "submitted"
	OutcomeFailed    OutcomeKind = "failed"
)

type Outcome struct {
	Kind   OutcomeKind
	Record *TransferResponse // Submitted のとき
	Err    error             // Failed のとき
}

// ProductSnapshot: ワークフロー起動時に呼び出し側から渡される商品情報
type ProductSnapshot struct {
	ProductID           int64
	ProductName         string
	DefaultLocationID   int64
	DefaultLocationName string
	TotalStock          int
}

// ===== コラボレータ =====

// LotCatalog: ロット選択肢の取得（lots.Service が実装）
type LotCatalog interface {
	ListActive(ctx context.Context, productID int64, accessibleLocationIDs []int64) ([]lots.LotResponse, error)
}

// LocationCatalog: 振替先候補の取得（locations.Service が実装）
type LocationCatalog interface {
	ListActive(ctx context.Context, excludeID int64, nameQuery string) ([]locations.LocationResponse, error)
}

// Submitter: 最終確認後の振替コマンド実行（transfers.Service が実装）
type Submitter interface {
	CreateTransfer(ctx context.Context, actor auth.Actor, req CreateTransferRequest) (*TransferResponse, error)
}

// ===== Workflow本体 =====

// Workflow は3ステップの振替ウィザードの状態機械。
// ロット選択 → 振替先入力 → 最終確認 → 送信。
// 戻る操作では入力値を保持し、キャンセルで全て破棄する。
type Workflow struct {
	product   ProductSnapshot
	actor     auth.Actor
	lotCat    LotCatalog
	locCat    LocationCatalog
	submitter Submitter
	clock     Clock

	step               Step
	selectedLot        *lots.LotResponse
	quantity           string // 画面の生入力をそのまま保持する
	sourceLocationID   int64
	sourceLocationName string
	destLocationID     int64
	destLocationName   string
	notes              string
	transferDate       time.Time

	lotStepValid     bool
	detailsStepValid bool
	submitting       bool
	closed           bool
}

func NewWorkflow(product ProductSnapshot, actor auth.Actor, lotCat LotCatalog, locCat LocationCatalog, submitter Submitter) *Workflow {
	w := &Workflow{
		product:   product,
		actor:     actor,
		lotCat:    lotCat,
		locCat:    locCat,
		submitter: submitter,
		clock:     realClock{},
	}
	w.reset()
	return w
}

// reset: 起動時・送信成功時のデフォルト状態に戻す
func (w *Workflow) reset() {
	w.step = StepLotSelection
	w.selectedLot = nil
	w.quantity = ""
	w.sourceLocationID = w.product.DefaultLocationID
	w.sourceLocationName = w.product.DefaultLocationName
	w.destLocationID = 0
	w.destLocationName = ""
	w.notes = ""
	w.transferDate = w.clock.Now()
	w.lotStepValid = false
	w.detailsStepValid = false
	w.submitting = false
}

// ===== 選択肢の取得 =====

// LotOptions: 有効・残量ありのロットをロット番号順で返す。
// 拠点スコープ付きロールはアクセス可能拠点で絞り込む。
func (w *Workflow) LotOptions(ctx context.Context) ([]lots.LotResponse, error) {
	var accessible []int64
	if auth.RoleIsLocationScoped(w.actor.Role) {
		accessible = w.actor.LocationIDs
		if accessible == nil {
			accessible = []int64{}
		}
	}
	return w.lotCat.ListActive(ctx, w.product.ProductID, accessible)
}

// DestinationOptions: 有効拠点から振替元を除外し、名前で部分一致検索
func (w *Workflow) DestinationOptions(ctx context.Context, nameQuery string) ([]locations.LocationResponse, error) {
	return w.locCat.ListActive(ctx, w.sourceLocationID, nameQuery)
}

// ===== 入力 =====

// SelectLot: ロット選択。
// 振替元拠点は常に選択ロットの所在拠点で上書きされる
// （商品のデフォルト拠点と異なる拠点にあるロットを選べるため）。
func (w *Workflow) SelectLot(lot lots.LotResponse) {
	w.selectedLot = &lot
	w.sourceLocationID = lot.LocationID
	w.sourceLocationName = lot.LocationName
	w.lotStepValid = false
	w.detailsStepValid = false
}

func (w *Workflow) SetQuantity(q string) {
	w.quantity = q
	w.lotStepValid = false
}

func (w *Workflow) SetDestination(locationID int64, name string) {
	w.destLocationID = locationID
	w.destLocationName = name
	w.detailsStepValid = false
}

func (w *Workflow) SetNotes(notes string) {
	w.notes = notes
}

// ===== 遷移 =====

// Next: 現在のステップのバリデーションを通れば次のステップへ進む
func (w *Workflow) Next() error {
	if w.closed {
		return ErrConflict("workflow is closed")
	}
	switch w.step {
	case StepLotSelection:
		if err := w.validateLotStep(); err != nil {
			return err
		}
		w.lotStepValid = true
		w.step = StepTransferDetails
		return nil
	case StepTransferDetails:
		if err := w.validateDetailsStep(); err != nil {
			return err
		}
		w.detailsStepValid = true
		w.step = StepConfirmation
		return nil
	default:
		return ErrInvalid("already at confirmation step")
	}
}

// Back: 入力値は保持したまま前のステップに戻る
func (w *Workflow) Back() {
	switch w.step {
	case StepConfirmation:
		w.step = StepTransferDetails
	case StepTransferDetails:
		w.step = StepLotSelection
	}
}

// Cancel: 全状態を破棄して閉じる
func (w *Workflow) Cancel() Outcome {
	w.reset()
	w.closed = true
	return Outcome{Kind: OutcomeCancelled}
}

// Submit: 最終確認からの送信。
// 両ステップのバリデーションを防御的に再実行し、
// 拠点スコープ付きロールは振替元拠点の権限を確認してからコマンドを送る。
// 失敗時は確認ステップに留まり、入力値はそのまま（再試行可能）。
func (w *Workflow) Submit(ctx context.Context) (Outcome, error) {
	if w.closed {
		return Outcome{}, ErrConflict("workflow is closed")
	}
	if w.step != StepConfirmation {
		return Outcome{}, ErrInvalid("not at confirmation step")
	}
	if w.submitting {
		// 二重タップ対策: 送信中は新しい送信を受け付けない
		return Outcome{}, ErrConflict("submission already in flight")
	}

	if err := w.validateLotStep(); err != nil {
		return Outcome{}, err
	}
	w.lotStepValid = true
	if err := w.validateDetailsStep(); err != nil {
		return Outcome{}, err
	}
	w.detailsStepValid = true

	// グローバルロールは拠点チェックをスキップする
	if auth.RoleIsLocationScoped(w.actor.Role) && !w.actor.CanTransferFrom(w.sourceLocationID) {
		err := ErrPermissionDenied("この拠点から振替する権限がありません")
		return Outcome{Kind: OutcomeFailed, Err: err}, err
	}

	qty, _ := strconv.Atoi(strings.TrimSpace(w.quantity))
	req := CreateTransferRequest{
		ProductID:    w.product.ProductID,
		LotID:        w.selectedLot.LotID,
		ToLocationID: w.destLocationID,
		Quantity:     qty,
	}
	if w.notes != "" {
		notes := w.notes
		req.Notes = &notes
	}

	w.submitting = true
	rec, err := w.submitter.CreateTransfer(ctx, w.actor, req)
	w.submitting = false
	if err != nil {
		// 状態は保持したまま確認ステップに留まる
		return Outcome{Kind: OutcomeFailed, Err: err}, err
	}

	w.reset()
	w.closed = true
	return Outcome{Kind: OutcomeSubmitted, Record: rec}, nil
}

// ===== バリデータ =====

func (w *Workflow) validateLotStep() error {
	if w.selectedLot == nil {
		return ErrValidation("lot", "select a lot to transfer from")
	}
	q := strings.TrimSpace(w.quantity)
	if q == "" {
		return ErrValidation("quantity", "quantity is required")
	}
	qty, err := strconv.Atoi(q)
	if err != nil || qty <= 0 {
		return ErrValidation("quantity", "quantity must be a positive number")
	}
	if qty > w.selectedLot.Quantity {
		return ErrValidation("quantity", "quantity exceeds lot quantity")
	}
	if qty > w.product.TotalStock {
		return ErrValidation("quantity", "quantity exceeds total stock")
	}
	return nil
}

func (w *Workflow) validateDetailsStep() error {
	// ロット選択の副作用で必ず入っているはずだが防御的に再チェック
	if w.sourceLocationID == 0 {
		return ErrValidation("from_location_id", "source location is required")
	}
	if w.destLocationID == 0 {
		return ErrValidation("to_location_id", "destination location is required")
	}
	if w.destLocationID == w.sourceLocationID {
		return ErrValidation("to_location_id", "source and destination are the same location")
	}
	return nil
}

// ===== 状態の参照 =====

func (w *Workflow) CurrentStep() Step              { return w.step }
func (w *Workflow) Closed() bool                   { return w.closed }
func (w *Workflow) Pending() bool                  { return w.submitting }
func (w *Workflow) SelectedLot() *lots.LotResponse { return w.selectedLot }
func (w *Workflow) QuantityInput() string          { return w.quantity }
func (w *Workflow) Notes() string                  { return w.notes }
func (w *Workflow) TransferDate() time.Time        { return w.transferDate }

func (w *Workflow) Source() (int64, string) {
	return w.sourceLocationID, w.sourceLocationName
}

func (w *Workflow) Destination() (int64, string) {
	return w.destLocationID, w.destLocationName
}
