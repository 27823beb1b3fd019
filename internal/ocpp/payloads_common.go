package ocpp

import (
	"encoding/json"
	"time"
)

// StatusInfo adds detail to a status field.
type StatusInfo struct {
	ReasonCode     string `json:"reasonCode"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

// EVSE addresses an EVSE and optionally one of its connectors.
type EVSE struct {
	ID          int  `json:"id"`
	ConnectorID *int `json:"connectorId,omitempty"`
}

// IDToken identifies a user or vehicle.
type IDToken struct {
	IDToken string `json:"idToken"`
	Type    string `json:"type"`
}

// IDTokenInfo carries the authorization decision for an IDToken.
type IDTokenInfo struct {
	Status              string     `json:"status"`
	CacheExpiryDateTime *time.Time `json:"cacheExpiryDateTime,omitempty"`
}

// Component names a device model component.
type Component struct {
	Name     string `json:"name"`
	Instance string `json:"instance,omitempty"`
	EVSE     *EVSE  `json:"evse,omitempty"`
}

// Variable names a device model variable.
type Variable struct {
	Name     string `json:"name"`
	Instance string `json:"instance,omitempty"`
}

// CertificateHashData identifies a certificate by hashes of its issuer.
type CertificateHashData struct {
	HashAlgorithm  string `json:"hashAlgorithm"`
	IssuerNameHash string `json:"issuerNameHash"`
	IssuerKeyHash  string `json:"issuerKeyHash"`
	SerialNumber   string `json:"serialNumber"`
}

// StatusResponse is the common {status, statusInfo} response shape.
type StatusResponse struct {
	Status     string      `json:"status"`
	StatusInfo *StatusInfo `json:"statusInfo,omitempty"`
}

// Empty is the payload of messages without fields.
type Empty struct{}

// DataTransferRequest is valid in both directions.
type DataTransferRequest struct {
	VendorID  string          `json:"vendorId"`
	MessageID string          `json:"messageId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DataTransferResponse answers a DataTransferRequest.
type DataTransferResponse struct {
	Status     string      `json:"status"`
	StatusInfo *StatusInfo `json:"statusInfo,omitempty"`
	Data       any         `json:"data,omitempty"`
}

// Common status values.
const (
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"

	DataTransferUnknownVendorID  = "UnknownVendorId"
	DataTransferUnknownMessageID = "UnknownMessageId"
)
