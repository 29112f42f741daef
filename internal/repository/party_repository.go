package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
)

// tables behind the polymorphic references; all carry code and name.
var (
	subjectTables = map[model.SubjectKind]string{
		model.SubjectEmployee:      "members",
		model.SubjectPartnerMember: "partner_members",
	}
	counterpartyTables = map[model.CounterpartyKind]string{
		model.CounterpartyCompany:        "companies",
		model.CounterpartyPartnerCompany: "partner_companies",
		model.CounterpartyPartnerMember:  "partner_members",
		model.CounterpartyClientCompany:  "client_companies",
	}
)

type PartyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) lookup(ctx context.Context, table string, id uuid.UUID) (model.Party, error) {
	var p model.Party
	err := r.db.WithContext(ctx).Table(table).Select("code, name").Where("id = ?", id).Take(&p).Error
	if err != nil {
		return model.Party{}, notFound(err)
	}
	return p, nil
}

// Subject resolves a subject reference. A project member is named after the
// employee or partner member it assigns, with the assignment's own code.
func (r *PartyRepository) Subject(ctx context.Context, subject model.Subject) (model.Party, error) {
	if subject.Kind == model.SubjectProjectMember {
		pm, err := r.ProjectMember(ctx, subject.ID)
		if err != nil {
			return model.Party{}, err
		}
		member, err := r.Subject(ctx, pm.Member())
		if err != nil {
			return model.Party{}, err
		}
		return model.Party{Code: pm.Code, Name: member.Name}, nil
	}
	table, ok := subjectTables[subject.Kind]
	if !ok {
		return model.Party{}, fmt.Errorf("unknown subject kind %q", subject.Kind)
	}
	return r.lookup(ctx, table, subject.ID)
}

func (r *PartyRepository) Counterparty(ctx context.Context, cp model.Counterparty) (model.Party, error) {
	table, ok := counterpartyTables[cp.Kind]
	if !ok {
		return model.Party{}, fmt.Errorf("unknown counterparty kind %q", cp.Kind)
	}
	return r.lookup(ctx, table, cp.ID)
}

func (r *PartyRepository) ProjectMember(ctx context.Context, id uuid.UUID) (*model.ProjectMember, error) {
	var pm model.ProjectMember
	if err := r.db.WithContext(ctx).Preload("Project").First(&pm, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &pm, nil
}

func (r *PartyRepository) ListProjectMemberships(ctx context.Context, member model.Subject) ([]model.ProjectMember, error) {
	var rows []model.ProjectMember
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("member_kind = ? AND member_id = ? AND is_deleted = ?", member.Kind, member.ID, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PartyRepository) SetOnSales(ctx context.Context, subject model.Subject, onSales bool) error {
	if subject.Kind == model.SubjectProjectMember {
		pm, err := r.ProjectMember(ctx, subject.ID)
		if err != nil {
			return err
		}
		subject = pm.Member()
	}
	table, ok := subjectTables[subject.Kind]
	if !ok {
		return fmt.Errorf("unknown subject kind %q", subject.Kind)
	}
	return r.db.WithContext(ctx).Table(table).
		Where("id = ?", subject.ID).
		Updates(map[string]interface{}{"is_on_sales": onSales, "updated_at": time.Now().UTC()}).Error
}

func (r *PartyRepository) GetPartnerMember(ctx context.Context, id uuid.UUID) (*model.PartnerMember, error) {
	var m model.PartnerMember
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *PartyRepository) GetMember(ctx context.Context, id uuid.UUID) (*model.Member, error) {
	var m model.Member
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

func (r *PartyRepository) ListEmployedMembers(ctx context.Context, from, to time.Time) ([]model.Member, error) {
	var members []model.Member
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where(`EXISTS (
			SELECT 1 FROM contracts c
			WHERE c.subject_kind = ? AND c.subject_id = members.id
				AND c.counterparty_kind = ?
				AND c.is_deleted = ? AND c.status < ?
				AND c.start_date <= ? AND c.end_date >= ?
		)`, model.SubjectEmployee, model.CounterpartyCompany, false, model.ContractStatusDiscarded, to, from).
		Order("code").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PartyRepository) ListContractedPartnerMembers(ctx context.Context, from, to time.Time) ([]model.PartnerMember, error) {
	var members []model.PartnerMember
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where(`EXISTS (
			SELECT 1 FROM contracts c
			WHERE c.subject_kind = ? AND c.subject_id = partner_members.id
				AND c.is_deleted = ? AND c.status < ?
				AND c.start_date <= ? AND c.end_date >= ?
		)`, model.SubjectPartnerMember, false, model.ContractStatusDiscarded, to, from).
		Order("code").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

// ListMembersWithBirthday returns live members born on the given day whose
// contracts have not ended. Members born on Feb 29 are included on Feb 28 of
// common years.
func (r *PartyRepository) ListMembersWithBirthday(ctx context.Context, day time.Time) ([]model.Member, error) {
	days := birthdaysOn(day)
	q := r.db.WithContext(ctx).
		Where("is_deleted = ? AND birthday IS NOT NULL", false).
		Where(`EXISTS (
			SELECT 1 FROM contracts c
			WHERE c.subject_kind = ? AND c.subject_id = members.id
				AND c.is_deleted = ? AND c.end_date >= ?
		)`, model.SubjectEmployee, false, day)
	monthExpr, dayExpr, inSQL := monthDayColumns(r.db.Dialector.Name(), "birthday")
	if inSQL {
		conds := make([]string, 0, len(days))
		args := make([]interface{}, 0, 2*len(days))
		for _, md := range days {
			conds = append(conds, fmt.Sprintf("(%s = ? AND %s = ?)", monthExpr, dayExpr))
			args = append(args, md[0], md[1])
		}
		q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	var members []model.Member
	if err := q.Order("code").Find(&members).Error; err != nil {
		return nil, err
	}
	if inSQL {
		return members, nil
	}
	matched := members[:0]
	for _, m := range members {
		for _, md := range days {
			if int(m.Birthday.Month()) == md[0] && m.Birthday.Day() == md[1] {
				matched = append(matched, m)
				break
			}
		}
	}
	return matched, nil
}

func birthdaysOn(day time.Time) [][2]int {
	days := [][2]int{{int(day.Month()), day.Day()}}
	if day.Month() == time.February && day.Day() == 28 && dates.DaysIn(day.Year(), time.February) == 28 {
		days = append(days, [2]int{int(time.February), 29})
	}
	return days
}

// monthDayColumns extracts month and day of a date column; sqlite keeps dates
// as ISO text.
func monthDayColumns(dialect, column string) (string, string, bool) {
	switch dialect {
	case "postgres":
		return fmt.Sprintf("EXTRACT(MONTH FROM %s)", column), fmt.Sprintf("EXTRACT(DAY FROM %s)", column), true
	case "sqlite":
		return fmt.Sprintf("CAST(substr(%s, 6, 2) AS INTEGER)", column), fmt.Sprintf("CAST(substr(%s, 9, 2) AS INTEGER)", column), true
	}
	return "", "", false
}

func (r *PartyRepository) ListAttendances(ctx context.Context, subject model.Subject, year, month int) ([]model.Attendance, error) {
	var rows []model.Attendance
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND subject_id = ? AND year = ? AND month = ? AND is_deleted = ?",
			subject.Kind, subject.ID, year, month, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
