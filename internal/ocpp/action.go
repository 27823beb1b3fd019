package ocpp

// Action is the OCPP message name carried in a CALL frame.
type Action string

// Outbound actions, sent by the central system to a charge box.
const (
	ActionCancelReservation          Action = "CancelReservation"
	ActionCertificateSigned          Action = "CertificateSigned"
	ActionChangeAvailability         Action = "ChangeAvailability"
	ActionClearCache                 Action = "ClearCache"
	ActionClearChargingProfile       Action = "ClearChargingProfile"
	ActionClearDisplayMessage        Action = "ClearDisplayMessage"
	ActionClearVariableMonitoring    Action = "ClearVariableMonitoring"
	ActionCostUpdated                Action = "CostUpdated"
	ActionCustomerInformation        Action = "CustomerInformation"
	ActionDeleteCertificate          Action = "DeleteCertificate"
	ActionGetBaseReport              Action = "GetBaseReport"
	ActionGetChargingProfiles        Action = "GetChargingProfiles"
	ActionGetCompositeSchedule       Action = "GetCompositeSchedule"
	ActionGetDisplayMessages         Action = "GetDisplayMessages"
	ActionGetInstalledCertificateIDs Action = "GetInstalledCertificateIds"
	ActionGetLocalListVersion        Action = "GetLocalListVersion"
	ActionGetLog                     Action = "GetLog"
	ActionGetMonitoringReport        Action = "GetMonitoringReport"
	ActionGetReport                  Action = "GetReport"
	ActionGetTransactionStatus       Action = "GetTransactionStatus"
	ActionGetVariables               Action = "GetVariables"
	ActionInstallCertificate         Action = "InstallCertificate"
	ActionPublishFirmware            Action = "PublishFirmware"
	ActionRequestStartTransaction    Action = "RequestStartTransaction"
	ActionRequestStopTransaction     Action = "RequestStopTransaction"
	ActionReserveNow                 Action = "ReserveNow"
	ActionReset                      Action = "Reset"
	ActionSendLocalList              Action = "SendLocalList"
	ActionSetChargingProfile         Action = "SetChargingProfile"
	ActionSetDisplayMessage          Action = "SetDisplayMessage"
	ActionSetMonitoringBase          Action = "SetMonitoringBase"
	ActionSetMonitoringLevel         Action = "SetMonitoringLevel"
	ActionSetNetworkProfile          Action = "SetNetworkProfile"
	ActionSetVariableMonitoring      Action = "SetVariableMonitoring"
	ActionSetVariables               Action = "SetVariables"
	ActionTriggerMessage             Action = "TriggerMessage"
	ActionUnlockConnector            Action = "UnlockConnector"
	ActionUnpublishFirmware          Action = "UnpublishFirmware"
	ActionUpdateFirmware             Action = "UpdateFirmware"
)

// Inbound actions, sent by a charge box to the central system.
const (
	ActionAuthorize                         Action = "Authorize"
	ActionBootNotification                  Action = "BootNotification"
	ActionClearedChargingLimit              Action = "ClearedChargingLimit"
	ActionFirmwareStatusNotification        Action = "FirmwareStatusNotification"
	ActionGet15118EVCertificate             Action = "Get15118EVCertificate"
	ActionGetCertificateStatus              Action = "GetCertificateStatus"
	ActionHeartbeat                         Action = "Heartbeat"
	ActionLogStatusNotification             Action = "LogStatusNotification"
	ActionMeterValues                       Action = "MeterValues"
	ActionNotifyChargingLimit               Action = "NotifyChargingLimit"
	ActionNotifyCustomerInformation         Action = "NotifyCustomerInformation"
	ActionNotifyDisplayMessages             Action = "NotifyDisplayMessages"
	ActionNotifyEVChargingNeeds             Action = "NotifyEVChargingNeeds"
	ActionNotifyEVChargingSchedule          Action = "NotifyEVChargingSchedule"
	ActionNotifyEvent                       Action = "NotifyEvent"
	ActionNotifyMonitoringReport            Action = "NotifyMonitoringReport"
	ActionNotifyReport                      Action = "NotifyReport"
	ActionPublishFirmwareStatusNotification Action = "PublishFirmwareStatusNotification"
	ActionReportChargingProfiles            Action = "ReportChargingProfiles"
	ActionReservationStatusUpdate           Action = "ReservationStatusUpdate"
	ActionSecurityEventNotification         Action = "SecurityEventNotification"
	ActionSignCertificate                   Action = "SignCertificate"
	ActionStatusNotification                Action = "StatusNotification"
	ActionTransactionEvent                  Action = "TransactionEvent"
)

// ActionDataTransfer is valid in both directions.
const ActionDataTransfer Action = "DataTransfer"

// OutboundActions lists every action the central system may send.
var OutboundActions = []Action{
	ActionCancelReservation, ActionCertificateSigned, ActionChangeAvailability,
	ActionClearCache, ActionClearChargingProfile, ActionClearDisplayMessage,
	ActionClearVariableMonitoring, ActionCostUpdated, ActionCustomerInformation,
	ActionDataTransfer, ActionDeleteCertificate, ActionGetBaseReport,
	ActionGetChargingProfiles, ActionGetCompositeSchedule, ActionGetDisplayMessages,
	ActionGetInstalledCertificateIDs, ActionGetLocalListVersion, ActionGetLog,
	ActionGetMonitoringReport, ActionGetReport, ActionGetTransactionStatus,
	ActionGetVariables, ActionInstallCertificate, ActionPublishFirmware,
	ActionRequestStartTransaction, ActionRequestStopTransaction, ActionReserveNow,
	ActionReset, ActionSendLocalList, ActionSetChargingProfile,
	ActionSetDisplayMessage, ActionSetMonitoringBase, ActionSetMonitoringLevel,
	ActionSetNetworkProfile, ActionSetVariableMonitoring, ActionSetVariables,
	ActionTriggerMessage, ActionUnlockConnector, ActionUnpublishFirmware,
	ActionUpdateFirmware,
}

// InboundActions lists every action a charge box may send.
var InboundActions = []Action{
	ActionAuthorize, ActionBootNotification, ActionClearedChargingLimit,
	ActionDataTransfer, ActionFirmwareStatusNotification, ActionGet15118EVCertificate,
	ActionGetCertificateStatus, ActionHeartbeat, ActionLogStatusNotification,
	ActionMeterValues, ActionNotifyChargingLimit, ActionNotifyCustomerInformation,
	ActionNotifyDisplayMessages, ActionNotifyEVChargingNeeds, ActionNotifyEVChargingSchedule,
	ActionNotifyEvent, ActionNotifyMonitoringReport, ActionNotifyReport,
	ActionPublishFirmwareStatusNotification, ActionReportChargingProfiles,
	ActionReservationStatusUpdate, ActionSecurityEventNotification, ActionSignCertificate,
	ActionStatusNotification, ActionTransactionEvent,
}

var (
	outboundSet = toSet(OutboundActions)
	inboundSet  = toSet(InboundActions)
)

func toSet(actions []Action) map[Action]struct{} {
	m := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		m[a] = struct{}{}
	}
	return m
}

// IsOutbound reports whether the central system may send a.
func (a Action) IsOutbound() bool {
	_, ok := outboundSet[a]
	return ok
}

// IsInbound reports whether a charge box may send a.
func (a Action) IsInbound() bool {
	_, ok := inboundSet[a]
	return ok
}

func (a Action) String() string { return string(a) }
