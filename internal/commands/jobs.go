package commands

import (
	"context"
	"fmt"
)

type job struct {
	name  string
	title string
	do    func(ctx context.Context, r run) (string, error)
}

var jobs = []job{
	{name: "contract_auto_update", title: "Contract auto update", do: contractAutoUpdate},
	{name: "gen_partner_monthly_request", title: "Partner monthly requests", do: partnerMonthlyRequest},
	{name: "gen_project_monthly_request", title: "Project monthly requests", do: projectMonthlyRequest},
	{name: "partner_cost", title: "Partner cost", do: partnerCost},
	{name: "employee_cost", title: "Employee cost", do: employeeCost},
	{name: "paid_vacation", title: "Paid vacation grants", do: paidVacation},
	{name: "working_status", title: "Working status", do: workingStatus},
	{name: "birthday", title: "Birthday notice", do: birthday},
}

func contractAutoUpdate(ctx context.Context, r run) (string, error) {
	result, err := r.app.Contracts.AutoUpdate(ctx, r.actor, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d contracts renewed, %d failed", len(result.Renewed), len(result.Failed)), nil
}

func partnerMonthlyRequest(ctx context.Context, r run) (string, error) {
	result, err := r.app.Requests.RefreshPartner(ctx, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d-%02d: %d deleted, %d created", result.Year, result.Month, result.Deleted, result.Created), nil
}

func projectMonthlyRequest(ctx context.Context, r run) (string, error) {
	result, err := r.app.Requests.RefreshProject(ctx, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d-%02d: %d deleted, %d created", result.Year, result.Month, result.Deleted, result.Created), nil
}

func partnerCost(ctx context.Context, r run) (string, error) {
	result, err := r.app.Costs.PartnerCost(ctx, r.date)
	if err != nil {
		return "", err
	}
	return costSummary(result.Year, result.Month, result.Created, result.Skipped), nil
}

func employeeCost(ctx context.Context, r run) (string, error) {
	result, err := r.app.Costs.EmployeeCost(ctx, r.date)
	if err != nil {
		return "", err
	}
	return costSummary(result.Year, result.Month, result.Created, result.Skipped), nil
}

func costSummary(year, month, created, skipped int) string {
	return fmt.Sprintf("%04d-%02d: %d cost rows created, %d skipped", year, month, created, skipped)
}

func paidVacation(ctx context.Context, r run) (string, error) {
	result, err := r.app.Vacations.Generate(ctx, r.actor, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d grants created, %d skipped", result.Created, result.Skipped), nil
}

func workingStatus(ctx context.Context, r run) (string, error) {
	result, err := r.app.Statuses.Refresh(ctx, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("members %d, working %d, waiting %d", result.Members, result.Working, result.Waiting), nil
}

func birthday(ctx context.Context, r run) (string, error) {
	sent, err := r.app.Birthdays.Notify(ctx, r.date)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d birthday notices", sent), nil
}
