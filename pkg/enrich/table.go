package enrich

import "github.com/trustlens/trustlens/pkg/finding"

// weaknessTable maps (category, sub_type) to CWE + severity score.
// Rows with an empty sub_type are category-level fallbacks. Scores
// follow the CVSS-style bands: critical ≥9.0, high 7.0-8.9, medium
// 4.0-6.9, low 2.0-3.9, info <2.0. Every tuple a built-in check emits
// resolves to a row whose score sits in the band of the severity the
// check reports, so enriched findings stay internally consistent
// before correlation can escalate them.
var weaknessTable = map[key]Entry{
	// Transport security.
	{"missing_security_header", ""}:                          {"CWE-693", 4.3, finding.Medium},
	{"missing_security_header", "content-security-policy"}:   {"CWE-1021", 5.4, finding.Medium},
	{"missing_security_header", "strict-transport-security"}: {"CWE-319", 6.1, finding.Medium},
	{"missing_security_header", "x-frame-options"}:           {"CWE-1021", 5.4, finding.Medium},
	{"missing_security_header", "x-content-type-options"}:    {"CWE-16", 3.1, finding.Low},
	{"missing_security_header", "referrer-policy"}:           {"CWE-200", 2.6, finding.Low},
	{"missing_security_header", "permissive_csp"}:            {"CWE-693", 3.6, finding.Low},

	{"information_disclosure", ""}:              {"CWE-200", 3.7, finding.Low},
	{"information_disclosure", "server_banner"}: {"CWE-200", 1.8, finding.Info},

	// Cookies.
	{"insecure_cookie", ""}:                 {"CWE-614", 4.3, finding.Medium},
	{"insecure_cookie", "missing_secure"}:   {"CWE-614", 5.3, finding.Medium},
	{"insecure_cookie", "missing_httponly"}: {"CWE-1004", 4.3, finding.Medium},
	{"insecure_cookie", "missing_samesite"}: {"CWE-1275", 3.1, finding.Low},

	// Forms and credentials.
	{"insecure_form", ""}:                       {"CWE-319", 7.4, finding.High},
	{"insecure_form", "password_over_http"}:     {"CWE-319", 8.1, finding.High},
	{"insecure_form", "cross_origin_action"}:    {"CWE-601", 6.5, finding.Medium},
	{"insecure_form", "get_method"}:             {"CWE-598", 5.3, finding.Medium},
	{"credential_harvesting", ""}:               {"CWE-522", 9.3, finding.Critical},
	{"credential_harvesting", "lookalike_form"}: {"CWE-522", 9.6, finding.Critical},
	{"credential_harvesting", "exfil_beacon"}:   {"CWE-201", 8.6, finding.High},

	// Content integrity.
	{"mixed_content", ""}:        {"CWE-311", 4.8, finding.Medium},
	{"mixed_content", "script"}:  {"CWE-829", 7.2, finding.High},
	{"mixed_content", "iframe"}:  {"CWE-829", 7.1, finding.High},
	{"mixed_content", "passive"}: {"CWE-311", 3.4, finding.Low},

	// Exposure probes.
	{"sensitive_path_exposure", ""}:              {"CWE-538", 6.5, finding.Medium},
	{"sensitive_path_exposure", "vcs_dir"}:       {"CWE-538", 7.8, finding.High},
	{"sensitive_path_exposure", "env_file"}:      {"CWE-538", 9.1, finding.Critical},
	{"sensitive_path_exposure", "backup_file"}:   {"CWE-530", 7.1, finding.High},
	{"sensitive_path_exposure", "admin_panel"}:   {"CWE-425", 5.8, finding.Medium},
	{"sensitive_path_exposure", "metadata_file"}: {"CWE-538", 3.2, finding.Low},
	{"sensitive_path_exposure", "debug_page"}:    {"CWE-200", 7.5, finding.High},

	// Redirects and URL shape.
	{"open_redirect", ""}:                    {"CWE-601", 6.1, finding.Medium},
	{"suspicious_url", ""}:                   {"CWE-451", 4.4, finding.Medium},
	{"suspicious_url", "punycode_host"}:      {"CWE-451", 7.3, finding.High},
	{"suspicious_url", "ip_literal"}:         {"CWE-451", 4.0, finding.Medium},
	{"suspicious_url", "userinfo_trick"}:     {"CWE-451", 7.4, finding.High},
	{"suspicious_url", "brand_in_subdomain"}: {"CWE-451", 7.2, finding.High},
	{"suspicious_url", "deep_subdomains"}:    {"CWE-451", 2.2, finding.Low},

	// TLS.
	{"weak_tls", ""}:                {"CWE-326", 7.4, finding.High},
	{"weak_tls", "legacy_version"}:  {"CWE-327", 7.5, finding.High},
	{"weak_tls", "expiring_cert"}:   {"CWE-324", 4.2, finding.Medium},
	{"weak_tls", "expired_cert"}:    {"CWE-298", 7.4, finding.High},
	{"weak_tls", "untrusted_chain"}: {"CWE-295", 7.4, finding.High},

	// Deceptive design (visually anchored).
	{"deceptive_overlay", ""}:                   {"CWE-1021", 5.0, finding.Medium},
	{"deceptive_overlay", "obstructed_dismiss"}: {"CWE-451", 4.6, finding.Medium},
	{"countdown_timer", ""}:                     {"CWE-451", 4.1, finding.Medium},
	{"preselected_optin", ""}:                   {"CWE-451", 3.3, finding.Low},
	{"pressure_tactic", ""}:                     {"CWE-451", 2.8, finding.Low},
	{"pressure_tactic", "scarcity_claim"}:       {"CWE-451", 2.5, finding.Low},
}
