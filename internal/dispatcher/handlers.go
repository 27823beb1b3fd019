package dispatcher

import (
	"context"
	"errors"

	"github.com/nerrad567/chargebox-core/internal/ocpp"
)

// defaultHandlers returns the stub handler of every inbound action.
func (d *Dispatcher) defaultHandlers() map[ocpp.Action]Handler {
	accepted := ocpp.StatusResponse{Status: ocpp.StatusAccepted}
	empty := ocpp.Empty{}

	return map[ocpp.Action]Handler{
		ocpp.ActionAuthorize: decoded(func(ocpp.AuthorizeRequest) any {
			return ocpp.AuthorizeResponse{IDTokenInfo: ocpp.IDTokenInfo{Status: ocpp.StatusAccepted}}
		}),
		ocpp.ActionBootNotification: decoded(func(ocpp.BootNotificationRequest) any {
			return ocpp.BootNotificationResponse{
				CurrentTime: d.now().UTC(),
				Interval:    int(d.cfg.HeartbeatInterval.Seconds()),
				Status:      d.cfg.RegistrationStatus,
			}
		}),
		ocpp.ActionClearedChargingLimit:       fixed[ocpp.ClearedChargingLimitRequest](empty),
		ocpp.ActionDataTransfer:               decoded(d.dataTransfer),
		ocpp.ActionFirmwareStatusNotification: fixed[ocpp.FirmwareStatusNotificationRequest](empty),
		ocpp.ActionGet15118EVCertificate: fixed[ocpp.Get15118EVCertificateRequest](
			ocpp.Get15118EVCertificateResponse{Status: ocpp.StatusAccepted},
		),
		ocpp.ActionGetCertificateStatus: fixed[ocpp.GetCertificateStatusRequest](
			ocpp.GetCertificateStatusResponse{Status: ocpp.StatusAccepted},
		),
		ocpp.ActionHeartbeat: decoded(func(ocpp.HeartbeatRequest) any {
			return ocpp.HeartbeatResponse{CurrentTime: d.now().UTC()}
		}),
		ocpp.ActionLogStatusNotification:             fixed[ocpp.LogStatusNotificationRequest](empty),
		ocpp.ActionMeterValues:                       fixed[ocpp.MeterValuesRequest](empty),
		ocpp.ActionNotifyChargingLimit:               fixed[ocpp.NotifyChargingLimitRequest](empty),
		ocpp.ActionNotifyCustomerInformation:         fixed[ocpp.NotifyCustomerInformationRequest](empty),
		ocpp.ActionNotifyDisplayMessages:             fixed[ocpp.NotifyDisplayMessagesRequest](empty),
		ocpp.ActionNotifyEVChargingNeeds:             fixed[ocpp.NotifyEVChargingNeedsRequest](accepted),
		ocpp.ActionNotifyEVChargingSchedule:          fixed[ocpp.NotifyEVChargingScheduleRequest](accepted),
		ocpp.ActionNotifyEvent:                       fixed[ocpp.NotifyEventRequest](empty),
		ocpp.ActionNotifyMonitoringReport:            fixed[ocpp.NotifyMonitoringReportRequest](empty),
		ocpp.ActionNotifyReport:                      fixed[ocpp.NotifyReportRequest](empty),
		ocpp.ActionPublishFirmwareStatusNotification: fixed[ocpp.PublishFirmwareStatusNotificationRequest](empty),
		ocpp.ActionReportChargingProfiles:            fixed[ocpp.ReportChargingProfilesRequest](empty),
		ocpp.ActionReservationStatusUpdate:           fixed[ocpp.ReservationStatusUpdateRequest](empty),
		ocpp.ActionSecurityEventNotification:         fixed[ocpp.SecurityEventNotificationRequest](empty),
		ocpp.ActionSignCertificate:                   fixed[ocpp.SignCertificateRequest](accepted),
		ocpp.ActionStatusNotification:                fixed[ocpp.StatusNotificationRequest](empty),
		ocpp.ActionTransactionEvent: decoded(func(r ocpp.TransactionEventRequest) any {
			if r.IDToken == nil {
				return ocpp.TransactionEventResponse{}
			}
			return ocpp.TransactionEventResponse{IDTokenInfo: &ocpp.IDTokenInfo{Status: ocpp.StatusAccepted}}
		}),
	}
}

// decoded converts the request payload to T before calling build. A payload
// that does not fit T is answered with FormatViolation. A missing payload
// yields the zero T.
func decoded[T any](build func(T) any) Handler {
	return func(_ context.Context, req *ocpp.Request) (any, *ocpp.CallError) {
		in, err := ocpp.DecodePayload[T](req.Payload)
		if err != nil && !errors.Is(err, ocpp.ErrNoPayload) {
			return nil, &ocpp.CallError{
				Class:       ocpp.ClassProtocol,
				Code:        ocpp.CodeFormatViolation,
				Description: err.Error(),
			}
		}
		return build(in), nil
	}
}

// fixed answers every well-formed T request with resp.
func fixed[T any](resp any) Handler {
	return decoded(func(T) any { return resp })
}
