package domain

import "time"

// PhoneNumber is a toll-free number owned by a client.
type PhoneNumber struct {
	ID               string     `json:"_id"`
	CompanyID        string     `json:"companyId"`
	TFN              string     `json:"tfn"`
	AreaCode         string     `json:"areaCode"`
	State            string     `json:"state"`
	Region           string     `json:"region"`
	Top15AreaCode    bool       `json:"top15AreaCode"`
	ATT              string     `json:"att"`
	ATTBranded       bool       `json:"attBranded"`
	TMobile          string     `json:"tmobile"`
	TMobileBranded   bool       `json:"tmobileBranded"`
	Verizon          string     `json:"verizon"`
	VerizonBranded   bool       `json:"verizonBranded"`
	BusinessCategory string     `json:"businessCategory"`
	FTCFlagged       bool       `json:"ftcFlagged"`
	FTCFlaggedAt     *time.Time `json:"ftcFlaggedAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Branded reports whether any carrier marks the number as branded.
func (p *PhoneNumber) Branded() bool {
	return p.ATTBranded || p.TMobileBranded || p.VerizonBranded
}

// PhoneView is a phone number joined with its owning client.
type PhoneView struct {
	PhoneNumber
	CompanyName string       `json:"companyName"`
	Status      ClientStatus `json:"status"`
}

// PhonePatch holds the optional fields of PATCH /numbers. The number itself
// and its owner are immutable.
type PhonePatch struct {
	AreaCode         *string `json:"areaCode,omitempty"`
	State            *string `json:"state,omitempty"`
	Region           *string `json:"region,omitempty"`
	Top15AreaCode    *bool   `json:"top15AreaCode,omitempty"`
	ATT              *string `json:"att,omitempty"`
	ATTBranded       *bool   `json:"attBranded,omitempty"`
	TMobile          *string `json:"tmobile,omitempty"`
	TMobileBranded   *bool   `json:"tmobileBranded,omitempty"`
	Verizon          *string `json:"verizon,omitempty"`
	VerizonBranded   *bool   `json:"verizonBranded,omitempty"`
	BusinessCategory *string `json:"businessCategory,omitempty"`
	FTCFlagged       *bool   `json:"ftcFlagged,omitempty"`
}

// Apply copies the set fields of p onto n. Clearing the complaint flag also
// clears its timestamp.
func (p PhonePatch) Apply(n *PhoneNumber, now time.Time) {
	setString(&n.AreaCode, p.AreaCode)
	setString(&n.State, p.State)
	setString(&n.Region, p.Region)
	setBool(&n.Top15AreaCode, p.Top15AreaCode)
	setString(&n.ATT, p.ATT)
	setBool(&n.ATTBranded, p.ATTBranded)
	setString(&n.TMobile, p.TMobile)
	setBool(&n.TMobileBranded, p.TMobileBranded)
	setString(&n.Verizon, p.Verizon)
	setBool(&n.VerizonBranded, p.VerizonBranded)
	setString(&n.BusinessCategory, p.BusinessCategory)
	if p.FTCFlagged != nil {
		n.FTCFlagged = *p.FTCFlagged
		if n.FTCFlagged {
			n.FTCFlaggedAt = &now
		} else {
			n.FTCFlaggedAt = nil
		}
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// UploadResult is returned by POST /numbers.
type UploadResult struct {
	Message string   `json:"message"`
	IDs     []string `json:"ids"`
}

// FTCReport is the outcome of a complaint-list cross-check.
type FTCReport struct {
	Total   int         `json:"total"`
	Flagged int         `json:"ftcFlagged"`
	Clients []FTCClient `json:"clients"`
}

// FTCClient groups flagged numbers by owning client.
type FTCClient struct {
	ID          string       `json:"_id"`
	CompanyName string       `json:"companyName"`
	Status      ClientStatus `json:"status"`
	Numbers     []string     `json:"numbers"`
}
