package models

// CompanySettings is the issuing party shown on invoices and used as the
// default cc address for invoice email.
type CompanySettings struct {
	UserID      string `bson:"_id" json:"-"`
	CompanyName string `bson:"company_name" json:"company_name"`
	OwnerName   string `bson:"owner_name" json:"owner_name"`
	Email       string `bson:"email" json:"email"`
	Phone       string `bson:"phone,omitempty" json:"phone,omitempty"`
	Address1    string `bson:"address1,omitempty" json:"address1,omitempty"`
	Address2    string `bson:"address2,omitempty" json:"address2,omitempty"`
	City        string `bson:"city,omitempty" json:"city,omitempty"`
	State       string `bson:"state,omitempty" json:"state,omitempty"`
	Zip         string `bson:"zip,omitempty" json:"zip,omitempty"`
}

// UserLimits is a per-user override merged over plan defaults. Nil fields
// fall through to the default for the user's plan; -1 means unlimited.
type UserLimits struct {
	UserID             string `bson:"_id" json:"-"`
	Plan               *Plan  `bson:"plan,omitempty" json:"plan,omitempty"`
	Clients            *int   `bson:"clients,omitempty" json:"clients,omitempty"`
	InvoicesPerMonth   *int   `bson:"invoices_per_month,omitempty" json:"invoices_per_month,omitempty"`
	BudgetsPerMonth    *int   `bson:"budgets_per_month,omitempty" json:"budgets_per_month,omitempty"`
	RecurringTemplates *int   `bson:"recurring_templates,omitempty" json:"recurring_templates,omitempty"`
}

// ResolvedLimits is the effective limit set after merging overrides over
// plan defaults.
type ResolvedLimits struct {
	Plan               Plan `json:"plan"`
	Clients            int  `json:"clients"`
	InvoicesPerMonth   int  `json:"invoices_per_month"`
	BudgetsPerMonth    int  `json:"budgets_per_month"`
	RecurringTemplates int  `json:"recurring_templates"`
}
