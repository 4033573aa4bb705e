package service

import (
	"time"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/dto"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
)

func accountToResponse(a *model.Account, now time.Time) dto.AccountResponse {
	resp := dto.AccountResponse{
		Code:                    a.Code,
		Username:                a.Username,
		Email:                   a.Email,
		FirstName:               a.FirstName,
		LastName:                a.LastName,
		Phone:                   a.Phone,
		Role:                    a.Role,
		Active:                  a.Active,
		LockoutState:            a.Lockout.State(now),
		FailedAttempts:          a.FailedAttempts,
		WantsPointNotifications: a.WantsPointNotifications,
		WantsOrderNotifications: a.WantsOrderNotifications,
		TOTPEnabled:             a.TOTPEnabled,
	}
	if a.IsLocked(now) {
		resp.LockoutReason = string(a.LockoutReason)
		resp.LockoutUntil = a.LockoutUntil
	}
	if a.Driver != nil {
		resp.LicenseNumber = &a.Driver.LicenseNumber
	}
	if a.Sponsor != nil {
		status := string(a.Sponsor.Status)
		resp.OrgName = &a.Sponsor.OrgName
		resp.SponsorStatus = &status
	}
	if a.Admin != nil {
		resp.RoleTitle = &a.Admin.RoleTitle
	}
	return resp
}

func accountsToResponse(list []model.Account, now time.Time) []dto.AccountResponse {
	resp := make([]dto.AccountResponse, len(list))
	for i := range list {
		resp[i] = accountToResponse(&list[i], now)
	}
	return resp
}

func purchaseToResponse(p model.Purchase) dto.PurchaseResponse {
	return dto.PurchaseResponse{
		ID:          p.ID,
		OrderID:     p.OrderID,
		AccountCode: p.AccountCode,
		SponsorCode: p.SponsorCode,
		ItemID:      p.ItemID,
		Title:       p.Title,
		Points:      p.Points,
		Quantity:    p.Quantity,
		PurchasedAt: p.PurchasedAt,
	}
}

func applicationToResponse(a model.DriverApplication) dto.ApplicationResponse {
	resp := dto.ApplicationResponse{
		ID:          a.ID,
		DriverCode:  a.DriverCode,
		SponsorCode: a.SponsorCode,
		Status:      a.Status,
		Reason:      a.Reason,
		AppliedAt:   a.AppliedAt,
		DecidedAt:   a.DecidedAt,
	}
	if a.Driver != nil {
		resp.DriverName = a.Driver.FullName()
	}
	return resp
}
