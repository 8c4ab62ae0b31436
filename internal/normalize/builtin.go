package normalize

// Built-in definitions for the four production audit feeds. The column maps
// follow the carrier's report layouts; the strict feeds fail loudly when a
// report layout shifts, while cross sell tolerates partial layouts.

// Source names double as the default normalizer names in sources.yml.
const (
	SourcePendingCancel = "pending_cancel"
	SourceCancellation  = "cancellation"
	SourceRenewal       = "renewal"
	SourceCrossSell     = "cross_sell"
)

func pendingCancelDefinition() Definition {
	return Definition{
		Name: SourcePendingCancel,
		Columns: map[string]string{
			"Insured First Name":      "first_name",
			"Insured Last Name":       "last_name",
			"Street Address":          "street_address",
			"City":                    "city",
			"State":                   "state",
			"Zip Code":                "zip_code",
			"Insured Email":           "insured_email",
			"Insured Phone":           "insured_phone",
			"Agent#":                  "agent_number",
			"Policy Number":           "policy_number",
			"Original Year":           "original_year",
			"Product Code":            "product_code",
			"Product Name":            "product_name",
			"Renewal Effective Date":  "renewal_effective_date",
			"Pending Cancel Date":     "pending_cancel_date",
			"Premium New($)":          "premium_new",
			"Premium Old($)":          "premium_old",
			"Status":                  "status",
			"No. of Items":            "item_count",
			"Account Type":            "account_type",
			"Company Code":            "company_code",
		},
		PremiumField: "premium_new",
		DateField:    "pending_cancel_date",
		Strict:       true,
	}
}

func cancellationDefinition() Definition {
	return Definition{
		Name: SourceCancellation,
		Columns: map[string]string{
			"Last Contact date":                  "last_contact_date",
			"Number Of Times Contacted":          "number_of_times_contacted",
			"Customer Consent":                   "customer_consent",
			"Click Here To Get Customer Consent": "customer_consent_click",
			"Insured First Name":                 "first_name",
			"Insured Last Name":                  "last_name",
			"Street Address":                     "street_address",
			"City":                               "city",
			"State":                              "state",
			"Zip Code":                           "zip_code",
			"Insured Email":                      "insured_email",
			"Insured Phone":                      "insured_phone",
			"Insured Preferred  Phone":           "insured_preferred_phone",
			"Agent#":                             "agent_number",
			"Policy Number":                      "policy_number",
			"Original Year":                      "original_year",
			"Product Code":                       "product_code",
			"Product Name":                       "product_name",
			"Amount Due($)":                      "amount_due",
			"Cancel Date":                        "cancel_date",
			"Status":                             "status",
			"Premium New($)":                     "premium_new",
			"Premium Old($)":                     "premium_old",
			"No. of Items":                       "item_count",
			"Account Type":                       "account_type",
			"Company Code":                       "company_code",
		},
		PremiumField: "premium_new",
		DateField:    "cancel_date",
		Strict:       true,
	}
}

func renewalDefinition() Definition {
	return Definition{
		Name: SourceRenewal,
		Columns: map[string]string{
			"Insured First Name":         "first_name",
			"Insured Last Name":          "last_name",
			"Street Address":             "street_address",
			"City":                       "city",
			"State":                      "state",
			"Zip Code":                   "zip_code",
			"Insured Email":              "insured_email",
			"Insured Phone":              "insured_phone",
			"Agent#":                     "agent_number",
			"Policy Number":              "policy_number",
			"Original Year":              "original_year",
			"Product Code":               "product_code",
			"Product Name":               "product_name",
			"Amount Due($)":              "amount_due",
			"Renewal Issue Date":         "renewal_issue_date",
			"Renewal Status":             "renewal_status",
			"Renewal Effective Date":     "renewal_effective_date",
			"Anniversary Effective Date": "anniversary_effective_date",
			"Status":                     "status",
			"Premium New($)":             "premium_new",
			"Premium Old($)":             "premium_old",
			"Premium Change($)":          "premium_change_dollars",
			"Premium Change(%)":          "premium_change_percent",
			"Easy Pay":                   "easy_pay",
			"Option Package":             "option_package",
			"Cede Code":                  "cede_code",
			"Account Type":               "account_type",
			"Company Code":               "company_code",
			"Multi-line Indicator":       "multi_line_indicator",
			"Item Count":                 "item_count",
			"Years Prior Insurance":      "years_prior_insurance",
		},
		PremiumField: "premium_new",
		DateField:    "renewal_effective_date",
		Strict:       true,
	}
}

func crossSellDefinition() Definition {
	return Definition{
		Name: SourceCrossSell,
		Columns: map[string]string{
			"Insured First Name":                "first_name",
			"Insured Last Name":                 "last_name",
			"Street Address":                    "street_address",
			"City":                              "city",
			"State":                             "state",
			"Zip Code":                          "zip_code",
			"Insured Email":                     "insured_email",
			"Insured Phone":                     "insured_phone",
			"Agent#":                            "agent_number",
			"Policy Number":                     "policy_number",
			"Original Year":                     "original_year",
			"Renewal Effective Date":            "renewal_effective_date",
			"Product Code":                      "product_code",
			"Product Name":                      "product_name",
			"Associated Product Code":           "associated_product_code",
			"Associated Product Name":           "associated_product_name",
			"Associated Policy Number":          "associated_policy_number",
			"Associated Original Year":          "associated_original_year",
			"Associated Effective Date":         "associated_effective_date",
			"Associated Agent#":                 "associated_agent_number",
			"Associated Insured Name":           "associated_insured_name",
			"Associated Insured Street Address": "associated_insured_street_address",
			"Associated Insured City":           "associated_insured_city",
			"Associated Insured State":          "associated_insured_state",
			"Associated Insured Zip Code":       "associated_insured_zip_code",
		},
		DateField: "renewal_effective_date",
	}
}

// Builtins returns the built-in definitions in feed order.
func Builtins() []Definition {
	return []Definition{
		pendingCancelDefinition(),
		cancellationDefinition(),
		renewalDefinition(),
		crossSellDefinition(),
	}
}

// RegisterBuiltins installs the built-in normalizers.
func RegisterBuiltins(reg *Registry) {
	for _, def := range Builtins() {
		reg.MustRegister(def.Name, def.Normalizer())
	}
}
