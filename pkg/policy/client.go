package policy

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"insurance-intake-be/pkg/fault"
)

// Policy is the full detail returned by a policy number lookup.
type Policy struct {
	PolicyNumber   string `xml:"PolicyNumber" json:"policy_number"`
	HolderName     string `xml:"HolderName" json:"holder_name"`
	PolicyType     string `xml:"PolicyType" json:"policy_type"`
	Status         string `xml:"Status" json:"status"`
	Carrier        string `xml:"Carrier" json:"carrier"`
	EffectiveDate  string `xml:"EffectiveDate" json:"effective_date"`
	ExpirationDate string `xml:"ExpirationDate" json:"expiration_date"`
	PremiumAmount  string `xml:"PremiumAmount" json:"premium_amount"`
	InsuredAddress string `xml:"InsuredAddress" json:"insured_address"`
}

// Customer is a policy-management customer record.
type Customer struct {
	CustomerNumber string `xml:"CustomerNumber" json:"customer_number"`
	Name           string `xml:"Name" json:"name"`
	Phone          string `xml:"Phone" json:"phone"`
	Email          string `xml:"Email" json:"email"`
}

// PolicySummary is the short form listed under a customer.
type PolicySummary struct {
	PolicyNumber   string `xml:"PolicyNumber" json:"policy_number"`
	PolicyType     string `xml:"PolicyType" json:"policy_type"`
	Status         string `xml:"Status" json:"status"`
	ExpirationDate string `xml:"ExpirationDate" json:"expiration_date"`
}

// IClient is the policy management surface used by the intake tools.
// GetPolicyByNumber returns (nil, nil) when the number does not exist,
// so callers can distinguish a definitive miss from a transport error.
type IClient interface {
	GetPolicyByNumber(ctx context.Context, policyNumber string) (*Policy, error)
	SearchCustomersByPhone(ctx context.Context, phone string) ([]Customer, error)
	SearchCustomersByName(ctx context.Context, name string) ([]Customer, error)
	GetCustomerPolicies(ctx context.Context, customerNumber string) ([]PolicySummary, error)
}

type client struct {
	endpoint   string
	agencyNo   string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(endpoint, agencyNo, username, password string) IClient {
	return &client{
		endpoint: endpoint,
		agencyNo: agencyNo,
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// --- SOAP plumbing ---

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Fault *soapFault `xml:"Fault"`
	Inner []byte     `xml:",innerxml"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	Reason string `xml:"faultstring"`
}

type authHeader struct {
	XMLName  xml.Name `xml:"Authentication"`
	AgencyNo string   `xml:"AgencyNo"`
	Username string   `xml:"Username"`
	Password string   `xml:"Password"`
}

func (c *client) call(ctx context.Context, action string, payload, out interface{}) error {
	header, err := xml.Marshal(authHeader{AgencyNo: c.agencyNo, Username: c.username, Password: c.password})
	if err != nil {
		return fault.Wrap(fault.External, err, "policy request could not be encoded")
	}
	body, err := xml.Marshal(payload)
	if err != nil {
		return fault.Wrap(fault.External, err, "policy request could not be encoded")
	}

	envelope := fmt.Sprintf(
		`<?xml version="1.0" encoding="utf-8"?>`+
			`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/">`+
			`<soap:Header>%s</soap:Header>`+
			`<soap:Body>%s</soap:Body>`+
			`</soap:Envelope>`,
		header, body,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(envelope))
	if err != nil {
		return fault.Wrap(fault.External, err, "policy request could not be built")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", action)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Wrap(fault.External, err, "policy management system is unreachable")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fault.Wrap(fault.External, err, "policy response could not be read")
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusInternalServerError {
		// SOAP faults arrive as 500 with a Fault body, anything else
		// is a plain transport failure.
		return fault.New(fault.External, "policy call %s failed: status %d", action, resp.StatusCode)
	}

	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return fault.Wrap(fault.External, err, "policy response could not be parsed")
	}
	if env.Body.Fault != nil {
		return fault.New(fault.External, "policy call %s faulted: %s", action, env.Body.Fault.Reason)
	}

	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return fault.Wrap(fault.External, err, "policy response body could not be parsed")
	}
	return nil
}

// --- Operations ---

type getPolicyRequest struct {
	XMLName      xml.Name `xml:"GetPolicyRequest"`
	PolicyNumber string   `xml:"PolicyNumber"`
}

type getPolicyResponse struct {
	XMLName xml.Name `xml:"GetPolicyResponse"`
	Found   bool     `xml:"Found"`
	Policy  Policy   `xml:"Policy"`
}

func (c *client) GetPolicyByNumber(ctx context.Context, policyNumber string) (*Policy, error) {
	var resp getPolicyResponse
	if err := c.call(ctx, "GetPolicy", getPolicyRequest{PolicyNumber: policyNumber}, &resp); err != nil {
		return nil, err
	}
	if !resp.Found {
		return nil, nil
	}
	return &resp.Policy, nil
}

type searchCustomersRequest struct {
	XMLName xml.Name `xml:"SearchCustomersRequest"`
	Phone   string   `xml:"Phone,omitempty"`
	Name    string   `xml:"Name,omitempty"`
}

type searchCustomersResponse struct {
	XMLName   xml.Name   `xml:"SearchCustomersResponse"`
	Customers []Customer `xml:"Customers>Customer"`
}

func (c *client) SearchCustomersByPhone(ctx context.Context, phone string) ([]Customer, error) {
	var resp searchCustomersResponse
	if err := c.call(ctx, "SearchCustomers", searchCustomersRequest{Phone: phone}, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

func (c *client) SearchCustomersByName(ctx context.Context, name string) ([]Customer, error) {
	var resp searchCustomersResponse
	if err := c.call(ctx, "SearchCustomers", searchCustomersRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

type getCustomerPoliciesRequest struct {
	XMLName        xml.Name `xml:"GetCustomerPoliciesRequest"`
	CustomerNumber string   `xml:"CustomerNumber"`
}

type getCustomerPoliciesResponse struct {
	XMLName  xml.Name        `xml:"GetCustomerPoliciesResponse"`
	Policies []PolicySummary `xml:"Policies>Policy"`
}

func (c *client) GetCustomerPolicies(ctx context.Context, customerNumber string) ([]PolicySummary, error) {
	var resp getCustomerPoliciesResponse
	if err := c.call(ctx, "GetCustomerPolicies", getCustomerPoliciesRequest{CustomerNumber: customerNumber}, &resp); err != nil {
		return nil, err
	}
	return resp.Policies, nil
}
