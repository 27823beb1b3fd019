package ocpp

import (
	"encoding/json"
	"time"
)

// Payloads of requests received from charge boxes and of the responses the
// central system sends back.

type AuthorizeRequest struct {
	IDToken     IDToken         `json:"idToken"`
	Certificate string          `json:"certificate,omitempty"`
	HashData    json.RawMessage `json:"iso15118CertificateHashData,omitempty"`
}

type AuthorizeResponse struct {
	IDTokenInfo IDTokenInfo `json:"idTokenInfo"`
}

type ChargingStation struct {
	Model           string `json:"model"`
	VendorName      string `json:"vendorName"`
	SerialNumber    string `json:"serialNumber,omitempty"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
}

type BootNotificationRequest struct {
	Reason          string          `json:"reason"`
	ChargingStation ChargingStation `json:"chargingStation"`
}

type BootNotificationResponse struct {
	CurrentTime time.Time   `json:"currentTime"`
	Interval    int         `json:"interval"`
	Status      string      `json:"status"`
	StatusInfo  *StatusInfo `json:"statusInfo,omitempty"`
}

type ClearedChargingLimitRequest struct {
	ChargingLimitSource string `json:"chargingLimitSource"`
	EVSEID              *int   `json:"evseId,omitempty"`
}

type ClearedChargingLimitResponse = Empty

type FirmwareStatusNotificationRequest struct {
	Status    string `json:"status"`
	RequestID *int   `json:"requestId,omitempty"`
}

type FirmwareStatusNotificationResponse = Empty

type Get15118EVCertificateRequest struct {
	SchemaVersion string `json:"iso15118SchemaVersion"`
	Action        string `json:"action"`
	EXIRequest    string `json:"exiRequest"`
}

type Get15118EVCertificateResponse struct {
	Status      string `json:"status"`
	EXIResponse string `json:"exiResponse"`
}

type GetCertificateStatusRequest struct {
	OCSPRequestData json.RawMessage `json:"ocspRequestData"`
}

type GetCertificateStatusResponse struct {
	Status     string `json:"status"`
	OCSPResult string `json:"ocspResult,omitempty"`
}

type HeartbeatRequest = Empty

type HeartbeatResponse struct {
	CurrentTime time.Time `json:"currentTime"`
}

type LogStatusNotificationRequest struct {
	Status    string `json:"status"`
	RequestID *int   `json:"requestId,omitempty"`
}

type LogStatusNotificationResponse = Empty

type MeterValuesRequest struct {
	EVSEID     int             `json:"evseId"`
	MeterValue json.RawMessage `json:"meterValue"`
}

type MeterValuesResponse = Empty

type NotifyChargingLimitRequest struct {
	EVSEID           *int            `json:"evseId,omitempty"`
	ChargingLimit    json.RawMessage `json:"chargingLimit"`
	ChargingSchedule json.RawMessage `json:"chargingSchedule,omitempty"`
}

type NotifyChargingLimitResponse = Empty

type NotifyCustomerInformationRequest struct {
	Data        string    `json:"data"`
	TBC         bool      `json:"tbc,omitempty"`
	SeqNo       int       `json:"seqNo"`
	GeneratedAt time.Time `json:"generatedAt"`
	RequestID   int       `json:"requestId"`
}

type NotifyCustomerInformationResponse = Empty

type NotifyDisplayMessagesRequest struct {
	RequestID   int             `json:"requestId"`
	TBC         bool            `json:"tbc,omitempty"`
	MessageInfo json.RawMessage `json:"messageInfo,omitempty"`
}

type NotifyDisplayMessagesResponse = Empty

type NotifyEVChargingNeedsRequest struct {
	MaxScheduleTuples *int            `json:"maxScheduleTuples,omitempty"`
	EVSEID            int             `json:"evseId"`
	ChargingNeeds     json.RawMessage `json:"chargingNeeds"`
}

type NotifyEVChargingNeedsResponse = StatusResponse

type NotifyEVChargingScheduleRequest struct {
	TimeBase         time.Time       `json:"timeBase"`
	EVSEID           int             `json:"evseId"`
	ChargingSchedule json.RawMessage `json:"chargingSchedule"`
}

type NotifyEVChargingScheduleResponse = StatusResponse

type NotifyEventRequest struct {
	GeneratedAt time.Time       `json:"generatedAt"`
	TBC         bool            `json:"tbc,omitempty"`
	SeqNo       int             `json:"seqNo"`
	EventData   json.RawMessage `json:"eventData"`
}

type NotifyEventResponse = Empty

type NotifyMonitoringReportRequest struct {
	RequestID   int             `json:"requestId"`
	TBC         bool            `json:"tbc,omitempty"`
	SeqNo       int             `json:"seqNo"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Monitor     json.RawMessage `json:"monitor,omitempty"`
}

type NotifyMonitoringReportResponse = Empty

type NotifyReportRequest struct {
	RequestID   int             `json:"requestId"`
	GeneratedAt time.Time       `json:"generatedAt"`
	TBC         bool            `json:"tbc,omitempty"`
	SeqNo       int             `json:"seqNo"`
	ReportData  json.RawMessage `json:"reportData,omitempty"`
}

type NotifyReportResponse = Empty

type PublishFirmwareStatusNotificationRequest struct {
	Status    string   `json:"status"`
	Location  []string `json:"location,omitempty"`
	RequestID *int     `json:"requestId,omitempty"`
}

type PublishFirmwareStatusNotificationResponse = Empty

type ReportChargingProfilesRequest struct {
	RequestID           int             `json:"requestId"`
	ChargingLimitSource string          `json:"chargingLimitSource"`
	TBC                 bool            `json:"tbc,omitempty"`
	EVSEID              int             `json:"evseId"`
	ChargingProfile     json.RawMessage `json:"chargingProfile"`
}

type ReportChargingProfilesResponse = Empty

type ReservationStatusUpdateRequest struct {
	ReservationID           int    `json:"reservationId"`
	ReservationUpdateStatus string `json:"reservationUpdateStatus"`
}

type ReservationStatusUpdateResponse = Empty

type SecurityEventNotificationRequest struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TechInfo  string    `json:"techInfo,omitempty"`
}

type SecurityEventNotificationResponse = Empty

type SignCertificateRequest struct {
	CSR             string `json:"csr"`
	CertificateType string `json:"certificateType,omitempty"`
}

type SignCertificateResponse = StatusResponse

type StatusNotificationRequest struct {
	Timestamp       time.Time `json:"timestamp"`
	ConnectorStatus string    `json:"connectorStatus"`
	EVSEID          int       `json:"evseId"`
	ConnectorID     int       `json:"connectorId"`
}

type StatusNotificationResponse = Empty

type TransactionEventRequest struct {
	EventType          string          `json:"eventType"`
	Timestamp          time.Time       `json:"timestamp"`
	TriggerReason      string          `json:"triggerReason"`
	SeqNo              int             `json:"seqNo"`
	Offline            bool            `json:"offline,omitempty"`
	TransactionInfo    json.RawMessage `json:"transactionInfo"`
	IDToken            *IDToken        `json:"idToken,omitempty"`
	EVSE               *EVSE           `json:"evse,omitempty"`
	MeterValue         json.RawMessage `json:"meterValue,omitempty"`
	NumberOfPhasesUsed *int            `json:"numberOfPhasesUsed,omitempty"`
	ReservationID      *int            `json:"reservationId,omitempty"`
}

type TransactionEventResponse struct {
	TotalCost   *float64     `json:"totalCost,omitempty"`
	IDTokenInfo *IDTokenInfo `json:"idTokenInfo,omitempty"`
}
