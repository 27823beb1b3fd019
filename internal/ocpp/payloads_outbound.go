package ocpp

import (
	"encoding/json"
	"time"
)

// Payloads of requests sent to charge boxes and of their responses.
// Nested structures the core never interprets are kept as json.RawMessage.

type CancelReservationRequest struct {
	ReservationID int `json:"reservationId"`
}

type CancelReservationResponse = StatusResponse

type CertificateSignedRequest struct {
	CertificateChain string `json:"certificateChain"`
	CertificateType  string `json:"certificateType,omitempty"`
}

type CertificateSignedResponse = StatusResponse

type ChangeAvailabilityRequest struct {
	OperationalStatus string `json:"operationalStatus"`
	EVSE              *EVSE  `json:"evse,omitempty"`
}

type ChangeAvailabilityResponse = StatusResponse

type ClearCacheRequest = Empty

type ClearCacheResponse = StatusResponse

type ClearChargingProfileRequest struct {
	ChargingProfileID       *int            `json:"chargingProfileId,omitempty"`
	ChargingProfileCriteria json.RawMessage `json:"chargingProfileCriteria,omitempty"`
}

type ClearChargingProfileResponse = StatusResponse

type ClearDisplayMessageRequest struct {
	ID int `json:"id"`
}

type ClearDisplayMessageResponse = StatusResponse

type ClearVariableMonitoringRequest struct {
	ID []int `json:"id"`
}

type ClearVariableMonitoringResponse struct {
	ClearMonitoringResult json.RawMessage `json:"clearMonitoringResult"`
}

type CostUpdatedRequest struct {
	TotalCost     float64 `json:"totalCost"`
	TransactionID string  `json:"transactionId"`
}

type CostUpdatedResponse = Empty

type CustomerInformationRequest struct {
	RequestID           int                  `json:"requestId"`
	Report              bool                 `json:"report"`
	Clear               bool                 `json:"clear"`
	CustomerIdentifier  string               `json:"customerIdentifier,omitempty"`
	IDToken             *IDToken             `json:"idToken,omitempty"`
	CustomerCertificate *CertificateHashData `json:"customerCertificate,omitempty"`
}

type CustomerInformationResponse = StatusResponse

type DeleteCertificateRequest struct {
	CertificateHashData CertificateHashData `json:"certificateHashData"`
}

type DeleteCertificateResponse = StatusResponse

type GetBaseReportRequest struct {
	RequestID  int    `json:"requestId"`
	ReportBase string `json:"reportBase"`
}

type GetBaseReportResponse = StatusResponse

type GetChargingProfilesRequest struct {
	RequestID       int             `json:"requestId"`
	EVSEID          *int            `json:"evseId,omitempty"`
	ChargingProfile json.RawMessage `json:"chargingProfile"`
}

type GetChargingProfilesResponse = StatusResponse

type GetCompositeScheduleRequest struct {
	Duration         int    `json:"duration"`
	ChargingRateUnit string `json:"chargingRateUnit,omitempty"`
	EVSEID           int    `json:"evseId"`
}

type GetCompositeScheduleResponse struct {
	Status     string          `json:"status"`
	StatusInfo *StatusInfo     `json:"statusInfo,omitempty"`
	Schedule   json.RawMessage `json:"schedule,omitempty"`
}

type GetDisplayMessagesRequest struct {
	RequestID int    `json:"requestId"`
	ID        []int  `json:"id,omitempty"`
	Priority  string `json:"priority,omitempty"`
	State     string `json:"state,omitempty"`
}

type GetDisplayMessagesResponse = StatusResponse

type GetInstalledCertificateIDsRequest struct {
	CertificateType []string `json:"certificateType,omitempty"`
}

type GetInstalledCertificateIDsResponse struct {
	Status                   string          `json:"status"`
	StatusInfo               *StatusInfo     `json:"statusInfo,omitempty"`
	CertificateHashDataChain json.RawMessage `json:"certificateHashDataChain,omitempty"`
}

type GetLocalListVersionRequest = Empty

type GetLocalListVersionResponse struct {
	VersionNumber int `json:"versionNumber"`
}

type GetLogRequest struct {
	LogType       string          `json:"logType"`
	RequestID     int             `json:"requestId"`
	Retries       *int            `json:"retries,omitempty"`
	RetryInterval *int            `json:"retryInterval,omitempty"`
	Log           json.RawMessage `json:"log"`
}

type GetLogResponse struct {
	Status     string      `json:"status"`
	StatusInfo *StatusInfo `json:"statusInfo,omitempty"`
	Filename   string      `json:"filename,omitempty"`
}

type GetMonitoringReportRequest struct {
	RequestID          int             `json:"requestId"`
	MonitoringCriteria []string        `json:"monitoringCriteria,omitempty"`
	ComponentVariable  json.RawMessage `json:"componentVariable,omitempty"`
}

type GetMonitoringReportResponse = StatusResponse

type GetReportRequest struct {
	RequestID         int             `json:"requestId"`
	ComponentCriteria []string        `json:"componentCriteria,omitempty"`
	ComponentVariable json.RawMessage `json:"componentVariable,omitempty"`
}

type GetReportResponse = StatusResponse

type GetTransactionStatusRequest struct {
	TransactionID string `json:"transactionId,omitempty"`
}

type GetTransactionStatusResponse struct {
	OngoingIndicator *bool `json:"ongoingIndicator,omitempty"`
	MessagesInQueue  bool  `json:"messagesInQueue"`
}

type GetVariableData struct {
	AttributeType string    `json:"attributeType,omitempty"`
	Component     Component `json:"component"`
	Variable      Variable  `json:"variable"`
}

type GetVariablesRequest struct {
	GetVariableData []GetVariableData `json:"getVariableData"`
}

type GetVariableResult struct {
	AttributeStatus string    `json:"attributeStatus"`
	AttributeType   string    `json:"attributeType,omitempty"`
	AttributeValue  string    `json:"attributeValue,omitempty"`
	Component       Component `json:"component"`
	Variable        Variable  `json:"variable"`
}

type GetVariablesResponse struct {
	GetVariableResult []GetVariableResult `json:"getVariableResult"`
}

type InstallCertificateRequest struct {
	CertificateType string `json:"certificateType"`
	Certificate     string `json:"certificate"`
}

type InstallCertificateResponse = StatusResponse

type PublishFirmwareRequest struct {
	Location      string `json:"location"`
	Retries       *int   `json:"retries,omitempty"`
	Checksum      string `json:"checksum"`
	RequestID     int    `json:"requestId"`
	RetryInterval *int   `json:"retryInterval,omitempty"`
}

type PublishFirmwareResponse = StatusResponse

type RequestStartTransactionRequest struct {
	EVSEID          *int            `json:"evseId,omitempty"`
	RemoteStartID   int             `json:"remoteStartId"`
	IDToken         IDToken         `json:"idToken"`
	ChargingProfile json.RawMessage `json:"chargingProfile,omitempty"`
	GroupIDToken    *IDToken        `json:"groupIdToken,omitempty"`
}

type RequestStartTransactionResponse struct {
	Status        string      `json:"status"`
	StatusInfo    *StatusInfo `json:"statusInfo,omitempty"`
	TransactionID string      `json:"transactionId,omitempty"`
}

type RequestStopTransactionRequest struct {
	TransactionID string `json:"transactionId"`
}

type RequestStopTransactionResponse = StatusResponse

type ReserveNowRequest struct {
	ID             int       `json:"id"`
	ExpiryDateTime time.Time `json:"expiryDateTime"`
	ConnectorType  string    `json:"connectorType,omitempty"`
	IDToken        IDToken   `json:"idToken"`
	EVSEID         *int      `json:"evseId,omitempty"`
	GroupIDToken   *IDToken  `json:"groupIdToken,omitempty"`
}

type ReserveNowResponse = StatusResponse

type ResetRequest struct {
	Type   string `json:"type"`
	EVSEID *int   `json:"evseId,omitempty"`
}

type ResetResponse = StatusResponse

type SendLocalListRequest struct {
	VersionNumber          int             `json:"versionNumber"`
	UpdateType             string          `json:"updateType"`
	LocalAuthorizationList json.RawMessage `json:"localAuthorizationList,omitempty"`
}

type SendLocalListResponse = StatusResponse

type SetChargingProfileRequest struct {
	EVSEID          int             `json:"evseId"`
	ChargingProfile json.RawMessage `json:"chargingProfile"`
}

type SetChargingProfileResponse = StatusResponse

type SetDisplayMessageRequest struct {
	Message json.RawMessage `json:"message"`
}

type SetDisplayMessageResponse = StatusResponse

type SetMonitoringBaseRequest struct {
	MonitoringBase string `json:"monitoringBase"`
}

type SetMonitoringBaseResponse = StatusResponse

type SetMonitoringLevelRequest struct {
	Severity int `json:"severity"`
}

type SetMonitoringLevelResponse = StatusResponse

type SetNetworkProfileRequest struct {
	ConfigurationSlot int             `json:"configurationSlot"`
	ConnectionData    json.RawMessage `json:"connectionData"`
}

type SetNetworkProfileResponse = StatusResponse

type SetVariableMonitoringRequest struct {
	SetMonitoringData json.RawMessage `json:"setMonitoringData"`
}

type SetVariableMonitoringResponse struct {
	SetMonitoringResult json.RawMessage `json:"setMonitoringResult"`
}

type SetVariableData struct {
	AttributeType  string    `json:"attributeType,omitempty"`
	AttributeValue string    `json:"attributeValue"`
	Component      Component `json:"component"`
	Variable       Variable  `json:"variable"`
}

type SetVariablesRequest struct {
	SetVariableData []SetVariableData `json:"setVariableData"`
}

type SetVariableResult struct {
	AttributeType   string      `json:"attributeType,omitempty"`
	AttributeStatus string      `json:"attributeStatus"`
	Component       Component   `json:"component"`
	Variable        Variable    `json:"variable"`
	StatusInfo      *StatusInfo `json:"attributeStatusInfo,omitempty"`
}

type SetVariablesResponse struct {
	SetVariableResult []SetVariableResult `json:"setVariableResult"`
}

type TriggerMessageRequest struct {
	RequestedMessage string `json:"requestedMessage"`
	EVSE             *EVSE  `json:"evse,omitempty"`
}

type TriggerMessageResponse = StatusResponse

type UnlockConnectorRequest struct {
	EVSEID      int `json:"evseId"`
	ConnectorID int `json:"connectorId"`
}

type UnlockConnectorResponse = StatusResponse

type UnpublishFirmwareRequest struct {
	Checksum string `json:"checksum"`
}

type UnpublishFirmwareResponse struct {
	Status string `json:"status"`
}

type UpdateFirmwareRequest struct {
	Retries       *int            `json:"retries,omitempty"`
	RetryInterval *int            `json:"retryInterval,omitempty"`
	RequestID     int             `json:"requestId"`
	Firmware      json.RawMessage `json:"firmware"`
}

type UpdateFirmwareResponse = StatusResponse
