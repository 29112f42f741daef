package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/timeseries"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

// Periods resolves overlaps between contracts of one scope.
func (r *ContractRepository) Periods() *timeseries.Store[model.Contract, *model.Contract] {
	return timeseries.NewStore[model.Contract](r.db)
}

// SiblingScope is subject + counterparty + contract type.
func SiblingScope(c *model.Contract) timeseries.Scope {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(
			"subject_kind = ? AND subject_id = ? AND counterparty_kind = ? AND counterparty_id = ? AND contract_type = ?",
			c.SubjectKind, c.SubjectID, c.CounterpartyKind, c.CounterpartyID, c.ContractType,
		)
	}
}

func liveItems(q *gorm.DB) *gorm.DB {
	return q.Where("is_deleted = ?", false).Order("code")
}

func (r *ContractRepository) withItems(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Comments", liveItems).
		Preload("CalculateHours", liveItems).
		Preload("Allowances", liveItems)
}

func (r *ContractRepository) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	if err := r.withItems(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ContractRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var c model.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *ContractRepository) Create(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ContractRepository) UpdateHeader(ctx context.Context, c *model.Contract) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(c).Error
}

func (r *ContractRepository) ReplaceItems(
	ctx context.Context,
	contractID uuid.UUID,
	comments []model.ContractComment,
	hours []model.ContractCalculateHours,
	allowances []model.ContractAllowance,
	at time.Time,
) error {
	db := r.db.WithContext(ctx)
	retire := map[string]interface{}{"is_deleted": true, "deleted_at": at}
	for _, m := range []interface{}{&model.ContractComment{}, &model.ContractCalculateHours{}, &model.ContractAllowance{}} {
		if err := db.Model(m).Where("contract_id = ? AND is_deleted = ?", contractID, false).Updates(retire).Error; err != nil {
			return err
		}
	}
	for i := range comments {
		comments[i].ID = uuid.Nil
		comments[i].ContractID = contractID
	}
	for i := range hours {
		hours[i].ID = uuid.Nil
		hours[i].ContractID = contractID
	}
	for i := range allowances {
		allowances[i].ID = uuid.Nil
		allowances[i].ContractID = contractID
	}
	if len(comments) > 0 {
		if err := db.Create(&comments).Error; err != nil {
			return err
		}
	}
	if len(hours) > 0 {
		if err := db.Create(&hours).Error; err != nil {
			return err
		}
	}
	if len(allowances) > 0 {
		if err := db.Create(&allowances).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *ContractRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time, actor string) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at, "updated_by": actor}).Error
}

// TruncateTo moves the end date without touching initial_end_date.
func (r *ContractRepository) TruncateTo(ctx context.Context, id uuid.UUID, end time.Time, actor string) error {
	return r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"end_date": end, "updated_by": actor}).Error
}

// ListAutoUpdateCandidates locks live, auto-updating contracts of the given
// types that end within [from, to] and were never renewed. Deleted children
// count as renewals.
func (r *ContractRepository) ListAutoUpdateCandidates(ctx context.Context, types []string, from, to time.Time) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.withItems(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_deleted = ?", false).
		Where("contract_type IN ?", types).
		Where("status < ?", model.ContractStatusDiscarded).
		Where("is_auto_update = ?", true).
		Where("end_date >= ? AND end_date <= ?", from, to).
		Where("NOT EXISTS (SELECT 1 FROM contracts child WHERE child.parent_id = contracts.id)").
		Order("end_date, contract_no").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) ListActiveBetween(ctx context.Context, from, to time.Time, scope func(*gorm.DB) *gorm.DB) ([]model.Contract, error) {
	q := r.withItems(ctx).
		Where("is_deleted = ?", false).
		Where("start_date <= ? AND end_date >= ?", to, from)
	if scope != nil {
		q = scope(q)
	}
	var contracts []model.Contract
	if err := q.Order("start_date, contract_no").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

func (r *ContractRepository) ListBySubject(ctx context.Context, subject model.Subject) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subject_kind = ? AND subject_id = ? AND is_deleted = ?", subject.Kind, subject.ID, false).
		Order("start_date").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// ListAssignmentContracts returns live project-member contracts of the
// employee or partner member behind subject.
func (r *ContractRepository) ListAssignmentContracts(ctx context.Context, member model.Subject) ([]model.Contract, error) {
	var contracts []model.Contract
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND is_deleted = ?", model.SubjectProjectMember, false).
		Where("status < ?", model.ContractStatusDiscarded).
		Where("subject_id IN (?)", r.db.Model(&model.ProjectMember{}).
			Select("id").
			Where("member_kind = ? AND member_id = ? AND is_deleted = ?", member.Kind, member.ID, false)).
		Order("end_date DESC").
		Find(&contracts).Error
	if err != nil {
		return nil, err
	}
	return contracts, nil
}

// NextContractNo numbers contracts as {company}-{subject}-{seq:03d}; the
// sequence counts every contract ever issued under the prefix.
func (r *ContractRepository) NextContractNo(ctx context.Context, companyCode, subjectCode string) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", companyCode, subjectCode)
	var numbers []string
	err := r.db.WithContext(ctx).Model(&model.Contract{}).
		Where("contract_no LIKE ?", prefix+"%").
		Pluck("contract_no", &numbers).Error
	if err != nil {
		return "", err
	}
	next := 1
	for _, no := range numbers {
		seq, err := strconv.Atoi(strings.TrimPrefix(no, prefix))
		if err == nil && seq >= next {
			next = seq + 1
		}
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

func (r *ContractRepository) CreateEvent(ctx context.Context, ev *model.ContractEvent) error {
	return r.db.WithContext(ctx).Create(ev).Error
}

func (r *ContractRepository) ListEvents(ctx context.Context, contractID uuid.UUID) ([]model.ContractEvent, error) {
	var events []model.ContractEvent
	err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("occurred_at, created_at").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *ContractRepository) CreateRetirement(ctx context.Context, ret *model.Retirement) error {
	return r.db.WithContext(ctx).Create(ret).Error
}

func (r *ContractRepository) CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Contract{}).Where("parent_id = ?", parentID).Count(&count).Error
	return count, err
}
