package gateway

import (
	"context"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// One method per outbound action. They differ only in payload types.

// CancelReservation cancels a reservation.
func (g *Gateway) CancelReservation(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.CancelReservationRequest, opts ...CallOption) (*Result[ocpp.CancelReservationResponse], error) {
	return call[ocpp.CancelReservationResponse](ctx, g, id, ocpp.ActionCancelReservation, req, opts)
}

// CertificateSigned delivers a signed certificate chain.
func (g *Gateway) CertificateSigned(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.CertificateSignedRequest, opts ...CallOption) (*Result[ocpp.CertificateSignedResponse], error) {
	return call[ocpp.CertificateSignedResponse](ctx, g, id, ocpp.ActionCertificateSigned, req, opts)
}

// ChangeAvailability sets a charge box, EVSE or connector operative or inoperative.
func (g *Gateway) ChangeAvailability(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ChangeAvailabilityRequest, opts ...CallOption) (*Result[ocpp.ChangeAvailabilityResponse], error) {
	return call[ocpp.ChangeAvailabilityResponse](ctx, g, id, ocpp.ActionChangeAvailability, req, opts)
}

// ClearCache clears the authorization cache.
func (g *Gateway) ClearCache(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ClearCacheRequest, opts ...CallOption) (*Result[ocpp.ClearCacheResponse], error) {
	return call[ocpp.ClearCacheResponse](ctx, g, id, ocpp.ActionClearCache, req, opts)
}

// ClearChargingProfile removes charging profiles matching the request.
func (g *Gateway) ClearChargingProfile(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ClearChargingProfileRequest, opts ...CallOption) (*Result[ocpp.ClearChargingProfileResponse], error) {
	return call[ocpp.ClearChargingProfileResponse](ctx, g, id, ocpp.ActionClearChargingProfile, req, opts)
}

// ClearDisplayMessage removes a display message.
func (g *Gateway) ClearDisplayMessage(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ClearDisplayMessageRequest, opts ...CallOption) (*Result[ocpp.ClearDisplayMessageResponse], error) {
	return call[ocpp.ClearDisplayMessageResponse](ctx, g, id, ocpp.ActionClearDisplayMessage, req, opts)
}

// ClearVariableMonitoring removes variable monitors by id.
func (g *Gateway) ClearVariableMonitoring(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ClearVariableMonitoringRequest, opts ...CallOption) (*Result[ocpp.ClearVariableMonitoringResponse], error) {
	return call[ocpp.ClearVariableMonitoringResponse](ctx, g, id, ocpp.ActionClearVariableMonitoring, req, opts)
}

// CostUpdated reports the running cost of a transaction.
func (g *Gateway) CostUpdated(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.CostUpdatedRequest, opts ...CallOption) (*Result[ocpp.CostUpdatedResponse], error) {
	return call[ocpp.CostUpdatedResponse](ctx, g, id, ocpp.ActionCostUpdated, req, opts)
}

// CustomerInformation requests or clears customer information.
func (g *Gateway) CustomerInformation(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.CustomerInformationRequest, opts ...CallOption) (*Result[ocpp.CustomerInformationResponse], error) {
	return call[ocpp.CustomerInformationResponse](ctx, g, id, ocpp.ActionCustomerInformation, req, opts)
}

// DataTransfer sends vendor-specific data.
func (g *Gateway) DataTransfer(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.DataTransferRequest, opts ...CallOption) (*Result[ocpp.DataTransferResponse], error) {
	return call[ocpp.DataTransferResponse](ctx, g, id, ocpp.ActionDataTransfer, req, opts)
}

// DeleteCertificate deletes an installed certificate.
func (g *Gateway) DeleteCertificate(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.DeleteCertificateRequest, opts ...CallOption) (*Result[ocpp.DeleteCertificateResponse], error) {
	return call[ocpp.DeleteCertificateResponse](ctx, g, id, ocpp.ActionDeleteCertificate, req, opts)
}

// GetBaseReport requests a device model report.
func (g *Gateway) GetBaseReport(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetBaseReportRequest, opts ...CallOption) (*Result[ocpp.GetBaseReportResponse], error) {
	return call[ocpp.GetBaseReportResponse](ctx, g, id, ocpp.ActionGetBaseReport, req, opts)
}

// GetChargingProfiles requests installed charging profiles.
func (g *Gateway) GetChargingProfiles(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetChargingProfilesRequest, opts ...CallOption) (*Result[ocpp.GetChargingProfilesResponse], error) {
	return call[ocpp.GetChargingProfilesResponse](ctx, g, id, ocpp.ActionGetChargingProfiles, req, opts)
}

// GetCompositeSchedule requests the composite charging schedule of an EVSE.
func (g *Gateway) GetCompositeSchedule(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetCompositeScheduleRequest, opts ...CallOption) (*Result[ocpp.GetCompositeScheduleResponse], error) {
	return call[ocpp.GetCompositeScheduleResponse](ctx, g, id, ocpp.ActionGetCompositeSchedule, req, opts)
}

// GetDisplayMessages requests configured display messages.
func (g *Gateway) GetDisplayMessages(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetDisplayMessagesRequest, opts ...CallOption) (*Result[ocpp.GetDisplayMessagesResponse], error) {
	return call[ocpp.GetDisplayMessagesResponse](ctx, g, id, ocpp.ActionGetDisplayMessages, req, opts)
}

// GetInstalledCertificateIDs lists installed certificates.
func (g *Gateway) GetInstalledCertificateIDs(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetInstalledCertificateIDsRequest, opts ...CallOption) (*Result[ocpp.GetInstalledCertificateIDsResponse], error) {
	return call[ocpp.GetInstalledCertificateIDsResponse](ctx, g, id, ocpp.ActionGetInstalledCertificateIDs, req, opts)
}

// GetLocalListVersion returns the version of the local authorization list.
func (g *Gateway) GetLocalListVersion(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetLocalListVersionRequest, opts ...CallOption) (*Result[ocpp.GetLocalListVersionResponse], error) {
	return call[ocpp.GetLocalListVersionResponse](ctx, g, id, ocpp.ActionGetLocalListVersion, req, opts)
}

// GetLog asks the charge box to upload a log file.
func (g *Gateway) GetLog(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetLogRequest, opts ...CallOption) (*Result[ocpp.GetLogResponse], error) {
	return call[ocpp.GetLogResponse](ctx, g, id, ocpp.ActionGetLog, req, opts)
}

// GetMonitoringReport requests a report of configured monitors.
func (g *Gateway) GetMonitoringReport(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetMonitoringReportRequest, opts ...CallOption) (*Result[ocpp.GetMonitoringReportResponse], error) {
	return call[ocpp.GetMonitoringReportResponse](ctx, g, id, ocpp.ActionGetMonitoringReport, req, opts)
}

// GetReport requests a filtered device model report.
func (g *Gateway) GetReport(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetReportRequest, opts ...CallOption) (*Result[ocpp.GetReportResponse], error) {
	return call[ocpp.GetReportResponse](ctx, g, id, ocpp.ActionGetReport, req, opts)
}

// GetTransactionStatus asks whether a transaction is ongoing and messages are queued.
func (g *Gateway) GetTransactionStatus(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetTransactionStatusRequest, opts ...CallOption) (*Result[ocpp.GetTransactionStatusResponse], error) {
	return call[ocpp.GetTransactionStatusResponse](ctx, g, id, ocpp.ActionGetTransactionStatus, req, opts)
}

// GetVariables reads device model variables.
func (g *Gateway) GetVariables(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.GetVariablesRequest, opts ...CallOption) (*Result[ocpp.GetVariablesResponse], error) {
	return call[ocpp.GetVariablesResponse](ctx, g, id, ocpp.ActionGetVariables, req, opts)
}

// InstallCertificate installs a root certificate.
func (g *Gateway) InstallCertificate(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.InstallCertificateRequest, opts ...CallOption) (*Result[ocpp.InstallCertificateResponse], error) {
	return call[ocpp.InstallCertificateResponse](ctx, g, id, ocpp.ActionInstallCertificate, req, opts)
}

// PublishFirmware asks a local controller to publish a firmware image.
func (g *Gateway) PublishFirmware(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.PublishFirmwareRequest, opts ...CallOption) (*Result[ocpp.PublishFirmwareResponse], error) {
	return call[ocpp.PublishFirmwareResponse](ctx, g, id, ocpp.ActionPublishFirmware, req, opts)
}

// RequestStartTransaction starts a transaction remotely.
func (g *Gateway) RequestStartTransaction(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.RequestStartTransactionRequest, opts ...CallOption) (*Result[ocpp.RequestStartTransactionResponse], error) {
	return call[ocpp.RequestStartTransactionResponse](ctx, g, id, ocpp.ActionRequestStartTransaction, req, opts)
}

// RequestStopTransaction stops a transaction remotely.
func (g *Gateway) RequestStopTransaction(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.RequestStopTransactionRequest, opts ...CallOption) (*Result[ocpp.RequestStopTransactionResponse], error) {
	return call[ocpp.RequestStopTransactionResponse](ctx, g, id, ocpp.ActionRequestStopTransaction, req, opts)
}

// ReserveNow reserves an EVSE for an id token.
func (g *Gateway) ReserveNow(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ReserveNowRequest, opts ...CallOption) (*Result[ocpp.ReserveNowResponse], error) {
	return call[ocpp.ReserveNowResponse](ctx, g, id, ocpp.ActionReserveNow, req, opts)
}

// Reset restarts the charge box or one EVSE.
func (g *Gateway) Reset(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.ResetRequest, opts ...CallOption) (*Result[ocpp.ResetResponse], error) {
	return call[ocpp.ResetResponse](ctx, g, id, ocpp.ActionReset, req, opts)
}

// SendLocalList updates the local authorization list.
func (g *Gateway) SendLocalList(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SendLocalListRequest, opts ...CallOption) (*Result[ocpp.SendLocalListResponse], error) {
	return call[ocpp.SendLocalListResponse](ctx, g, id, ocpp.ActionSendLocalList, req, opts)
}

// SetChargingProfile installs a charging profile.
func (g *Gateway) SetChargingProfile(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetChargingProfileRequest, opts ...CallOption) (*Result[ocpp.SetChargingProfileResponse], error) {
	return call[ocpp.SetChargingProfileResponse](ctx, g, id, ocpp.ActionSetChargingProfile, req, opts)
}

// SetDisplayMessage configures a display message.
func (g *Gateway) SetDisplayMessage(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetDisplayMessageRequest, opts ...CallOption) (*Result[ocpp.SetDisplayMessageResponse], error) {
	return call[ocpp.SetDisplayMessageResponse](ctx, g, id, ocpp.ActionSetDisplayMessage, req, opts)
}

// SetMonitoringBase activates a predefined monitoring set.
func (g *Gateway) SetMonitoringBase(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetMonitoringBaseRequest, opts ...CallOption) (*Result[ocpp.SetMonitoringBaseResponse], error) {
	return call[ocpp.SetMonitoringBaseResponse](ctx, g, id, ocpp.ActionSetMonitoringBase, req, opts)
}

// SetMonitoringLevel restricts reported monitor events by severity.
func (g *Gateway) SetMonitoringLevel(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetMonitoringLevelRequest, opts ...CallOption) (*Result[ocpp.SetMonitoringLevelResponse], error) {
	return call[ocpp.SetMonitoringLevelResponse](ctx, g, id, ocpp.ActionSetMonitoringLevel, req, opts)
}

// SetNetworkProfile updates a network connection profile slot.
func (g *Gateway) SetNetworkProfile(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetNetworkProfileRequest, opts ...CallOption) (*Result[ocpp.SetNetworkProfileResponse], error) {
	return call[ocpp.SetNetworkProfileResponse](ctx, g, id, ocpp.ActionSetNetworkProfile, req, opts)
}

// SetVariableMonitoring configures variable monitors.
func (g *Gateway) SetVariableMonitoring(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetVariableMonitoringRequest, opts ...CallOption) (*Result[ocpp.SetVariableMonitoringResponse], error) {
	return call[ocpp.SetVariableMonitoringResponse](ctx, g, id, ocpp.ActionSetVariableMonitoring, req, opts)
}

// SetVariables writes device model variables.
func (g *Gateway) SetVariables(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.SetVariablesRequest, opts ...CallOption) (*Result[ocpp.SetVariablesResponse], error) {
	return call[ocpp.SetVariablesResponse](ctx, g, id, ocpp.ActionSetVariables, req, opts)
}

// TriggerMessage asks the charge box to send a specific message.
func (g *Gateway) TriggerMessage(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.TriggerMessageRequest, opts ...CallOption) (*Result[ocpp.TriggerMessageResponse], error) {
	return call[ocpp.TriggerMessageResponse](ctx, g, id, ocpp.ActionTriggerMessage, req, opts)
}

// UnlockConnector unlocks a connector.
func (g *Gateway) UnlockConnector(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.UnlockConnectorRequest, opts ...CallOption) (*Result[ocpp.UnlockConnectorResponse], error) {
	return call[ocpp.UnlockConnectorResponse](ctx, g, id, ocpp.ActionUnlockConnector, req, opts)
}

// UnpublishFirmware stops publishing a firmware image.
func (g *Gateway) UnpublishFirmware(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.UnpublishFirmwareRequest, opts ...CallOption) (*Result[ocpp.UnpublishFirmwareResponse], error) {
	return call[ocpp.UnpublishFirmwareResponse](ctx, g, id, ocpp.ActionUnpublishFirmware, req, opts)
}

// UpdateFirmware asks the charge box to install new firmware.
func (g *Gateway) UpdateFirmware(ctx context.Context, id ocpp.ChargeBoxID, req ocpp.UpdateFirmwareRequest, opts ...CallOption) (*Result[ocpp.UpdateFirmwareResponse], error) {
	return call[ocpp.UpdateFirmwareResponse](ctx, g, id, ocpp.ActionUpdateFirmware, req, opts)
}
