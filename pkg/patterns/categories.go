package patterns

// =============================================================================
// PATTERN DEFINITIONS BY CATEGORY
// All patterns are registered here and compiled once at package init.
// This provides a single source of truth for all scam indicator patterns.
// =============================================================================

// --- RULE-SCORER FAMILIES (matched against raw message text) ---

func (r *Registry) registerUrgencyPatterns() {
	cat := CategoryUrgency

	r.register("urgent", `(?i)\burgent\b`, cat, 40, "Urgency keyword")
	r.register("immediately", `(?i)\bimmediately\b`, cat, 40, "Immediate action demand")
	r.register("today", `(?i)\btoday\b`, cat, 25, "Same-day deadline")
	r.register("now", `(?i)\bnow\b`, cat, 25, "Immediate deadline")
	r.register("asap", `(?i)\basap\b`, cat, 35, "ASAP pressure")
	r.register("quick", `(?i)\bquick\b`, cat, 25, "Speed pressure")
	r.register("fast", `(?i)\bfast\b`, cat, 25, "Speed pressure")
	r.register("hurry", `(?i)\bhurry\b`, cat, 35, "Hurry pressure")
	r.register("last_chance", `(?i)\blast\s+chance\b`, cat, 50, "Last-chance framing")
	r.register("limited_time", `(?i)\blimited\s+time\b`, cat, 45, "Limited-time framing")
	r.register("expiring", `(?i)\bexpir(?:e|ing|ed)\b`, cat, 40, "Expiry pressure")
}

func (r *Registry) registerThreatPatterns() {
	cat := CategoryThreat

	r.register("blocked", `(?i)\bblock(?:ed)?\b`, cat, 55, "Account blocking threat")
	r.register("suspended", `(?i)\b(?:suspend(?:ed)?|suspension)\b`, cat, 55, "Account suspension threat")
	r.register("deactivated", `(?i)\bdeactivat(?:e|ed)\b`, cat, 55, "Deactivation threat")
	r.register("frozen", `(?i)\bfreez(?:e|ing)\b`, cat, 55, "Account freeze threat")
	r.register("closed", `(?i)\bclose[ds]?\b`, cat, 45, "Account closure threat")
	r.register("legal_action", `(?i)\blegal\s+action\b`, cat, 65, "Legal action threat")
	r.register("arrest", `(?i)\barrest(?:ed)?\b`, cat, 70, "Arrest threat")
	r.register("police", `(?i)\bpolice\b`, cat, 60, "Police involvement threat")
	r.register("court", `(?i)\bcourt\b`, cat, 60, "Court involvement threat")
	r.register("penalty", `(?i)\bpenalt(?:y|ies)\b`, cat, 50, "Penalty threat")
	r.register("fine", `(?i)\bfin(?:e|ed)\b`, cat, 45, "Fine threat")
	r.register("warrant", `(?i)\bwarrant(?:ed)?\b`, cat, 65, "Warrant threat")
}

func (r *Registry) registerRequestPatterns() {
	cat := CategoryRequest

	r.register("verify", `(?i)\bverif(?:y|ied)\b`, cat, 40, "Verification request")
	r.register("confirm", `(?i)\bconfirm(?:ed)?\b`, cat, 35, "Confirmation request")
	r.register("update", `(?i)\bupdat(?:e|ed)\b`, cat, 30, "Update request")
	r.register("provide", `(?i)\bprovid(?:e|ed)\b`, cat, 35, "Information request")
	r.register("share", `(?i)\bshar(?:e|ed)\b`, cat, 40, "Sharing request")
	r.register("send", `(?i)\bsend(?:ing|t|ed)?\b`, cat, 35, "Send request")
	r.register("transfer", `(?i)\btransfer(?:red)?\b`, cat, 45, "Transfer request")
	r.register("pay", `(?i)\bpa(?:y|id)\b`, cat, 40, "Payment request")
	r.register("click", `(?i)\bclick(?:ed)?\b`, cat, 40, "Click request")
	r.register("link", `(?i)\blink\b`, cat, 35, "Link mention")
	r.register("enter", `(?i)\benter(?:ed)?\b`, cat, 35, "Data entry request")
}

func (r *Registry) registerSensitiveDataPatterns() {
	cat := CategorySensitiveData

	r.register("otp", `(?i)\botp\b`, cat, 80, "OTP request")
	r.register("pin", `(?i)\bpin\b`, cat, 75, "PIN request")
	r.register("password", `(?i)\bpassword\b`, cat, 75, "Password request")
	r.register("cvv", `(?i)\bcvv\b`, cat, 80, "CVV request")
	r.register("card_number", `(?i)\bcard\s+number\b`, cat, 75, "Card number request")
	r.register("account_number", `(?i)\baccount\s+number\b`, cat, 65, "Account number request")
	r.register("bank_details", `(?i)\bbank\s+details\b`, cat, 65, "Bank details request")
	r.register("upi", `(?i)\bupi\b`, cat, 60, "UPI mention")
	r.register("aadhaar", `(?i)\baadhaar\b`, cat, 70, "Aadhaar request")
	r.register("pan", `(?i)\bpan\b`, cat, 60, "PAN request")
	r.register("kyc", `(?i)\bkyc\b`, cat, 60, "KYC pretext")
}

func (r *Registry) registerImpersonationPatterns() {
	cat := CategoryImpersonation

	r.register("bank", `(?i)\bbank\b`, cat, 35, "Bank impersonation")
	r.register("rbi", `(?i)\brbi\b`, cat, 55, "RBI impersonation")
	r.register("sbi", `(?i)\bsbi\b`, cat, 45, "SBI impersonation")
	r.register("hdfc", `(?i)\bhdfc\b`, cat, 45, "HDFC impersonation")
	r.register("icici", `(?i)\bicici\b`, cat, 45, "ICICI impersonation")
	r.register("axis", `(?i)\baxis\b`, cat, 40, "Axis impersonation")
	r.register("paytm", `(?i)\bpaytm\b`, cat, 45, "Paytm impersonation")
	r.register("gpay", `(?i)\bgpay\b`, cat, 45, "GPay impersonation")
	r.register("phonepe", `(?i)\bphonepe\b`, cat, 45, "PhonePe impersonation")
	r.register("amazon", `(?i)\bamazon\b`, cat, 35, "Amazon impersonation")
	r.register("flipkart", `(?i)\bflipkart\b`, cat, 35, "Flipkart impersonation")
	r.register("customer_care", `(?i)\bcustomer\s+(?:care|service)\b`, cat, 45, "Customer-care claim")
	r.register("government", `(?i)\bgovernment\b`, cat, 50, "Government claim")
	r.register("official", `(?i)\bofficials?\b`, cat, 40, "Official claim")
	r.register("authorized", `(?i)\bauthorized\b`, cat, 40, "Authorization claim")
}

func (r *Registry) registerMoneyPatterns() {
	cat := CategoryMoney

	r.register("rupee_symbol", `₹\s*\d+(?:\.\d+)?`, cat, 40, "Rupee amount")
	r.register("rs_amount", `(?i)\brs\.?\s*\d+(?:\.\d+)?`, cat, 40, "Rs amount")
	r.register("rupees", `(?i)\brupees?\b`, cat, 30, "Rupee mention")
	r.register("inr", `(?i)\binr\b`, cat, 30, "INR mention")
	r.register("lakh", `(?i)\blakh\b`, cat, 40, "Lakh amount")
	r.register("crore", `(?i)\bcrore\b`, cat, 45, "Crore amount")
	r.register("prize", `(?i)\bprize\b`, cat, 55, "Prize lure")
	r.register("lottery", `(?i)\blotter(?:y|ies)\b`, cat, 60, "Lottery lure")
	r.register("winner", `(?i)\bwinner\b`, cat, 55, "Winner lure")
	r.register("cashback", `(?i)\bcashback\b`, cat, 40, "Cashback lure")
	r.register("reward", `(?i)\breward\b`, cat, 40, "Reward lure")
	r.register("bonus", `(?i)\bbonus\b`, cat, 40, "Bonus lure")
	r.register("amount", `(?i)\bamount\b`, cat, 25, "Amount mention")
}

// --- INTENT-SCORER FAMILIES (matched against normalized text) ---

func (r *Registry) registerFinancialEntityPatterns() {
	cat := CategoryFinancialEntity

	r.register("fin_upi", `(?i)\bupi\b`, cat, 55, "UPI entity")
	r.register("fin_bank", `(?i)\bbank(?:\s+account)?\b`, cat, 45, "Bank entity")
	r.register("fin_account", `(?i)\baccount(?:\s+number)?\b`, cat, 40, "Account entity")
	r.register("fin_card", `(?i)\bcard\b`, cat, 40, "Card entity")
	r.register("fin_wallet", `(?i)\bwallet\b`, cat, 40, "Wallet entity")
	r.register("fin_paytm", `(?i)\bpaytm\b`, cat, 45, "Paytm entity")
	r.register("fin_gpay", `(?i)\bgpay\b`, cat, 45, "GPay entity")
	r.register("fin_phonepe", `(?i)\bphonepe\b`, cat, 45, "PhonePe entity")
	r.register("fin_amazon_pay", `(?i)\bamazon\s+pay\b`, cat, 45, "Amazon Pay entity")
	r.register("fin_ifsc", `(?i)\bifsc\b`, cat, 50, "IFSC entity")
	r.register("fin_aadhaar", `(?i)\baadhaar\b`, cat, 55, "Aadhaar entity")
	r.register("fin_pan", `(?i)\bpan\b`, cat, 45, "PAN entity")
	r.register("fin_kyc", `(?i)\bkyc\b`, cat, 50, "KYC entity")
	r.register("fin_debit", `(?i)\bdebit\b`, cat, 40, "Debit entity")
	r.register("fin_credit", `(?i)\bcredit\b`, cat, 40, "Credit entity")
	r.register("fin_atm", `(?i)\batm\b`, cat, 40, "ATM entity")
	r.register("fin_netbanking", `(?i)\bnetbanking\b`, cat, 45, "Netbanking entity")
	r.register("fin_mobile_banking", `(?i)\bmobile\s+banking\b`, cat, 45, "Mobile banking entity")
}

func (r *Registry) registerActionRequestPatterns() {
	cat := CategoryActionRequest

	r.register("act_share", `(?i)\bshare\b`, cat, 45, "Share request")
	r.register("act_send", `(?i)\bsend\b`, cat, 40, "Send request")
	r.register("act_verify", `(?i)\bverif(?:y|ied)\b`, cat, 45, "Verify request")
	r.register("act_update", `(?i)\bupdat(?:e|ed)\b`, cat, 35, "Update request")
	r.register("act_provide", `(?i)\bprovid(?:e|ed)\b`, cat, 40, "Provide request")
	r.register("act_confirm", `(?i)\bconfirm(?:ed)?\b`, cat, 40, "Confirm request")
	r.register("act_enter", `(?i)\benter(?:ed)?\b`, cat, 40, "Enter request")
	r.register("act_submit", `(?i)\bsubmit(?:ted)?\b`, cat, 40, "Submit request")
	r.register("act_click", `(?i)\bclick(?:ed)?\b`, cat, 45, "Click request")
	r.register("act_transfer", `(?i)\btransfer(?:red)?\b`, cat, 50, "Transfer request")
	r.register("act_pay", `(?i)\bpa(?:y|id)\b`, cat, 45, "Pay request")
	r.register("act_complete", `(?i)\bcomplete\b`, cat, 30, "Complete request")
	r.register("act_fill", `(?i)\bfill\b`, cat, 35, "Fill request")
	r.register("act_register", `(?i)\bregister(?:ed)?\b`, cat, 35, "Register request")
}

func (r *Registry) registerCoercionPatterns() {
	cat := CategoryCoercion

	r.register("co_blocked", `(?i)\bblock(?:ed)?\b`, cat, 60, "Blocking coercion")
	r.register("co_suspended", `(?i)\b(?:suspend(?:ed)?|suspension)\b`, cat, 60, "Suspension coercion")
	r.register("co_deactivated", `(?i)\bdeactivat(?:e|ed)\b`, cat, 60, "Deactivation coercion")
	r.register("co_frozen", `(?i)\bfreez(?:e|ing)\b`, cat, 60, "Freeze coercion")
	r.register("co_closed", `(?i)\bclose[ds]?\b`, cat, 50, "Closure coercion")
	r.register("co_terminated", `(?i)\bterminate[ds]?\b`, cat, 55, "Termination coercion")
	r.register("co_cancelled", `(?i)\bcancel(?:led)?\b`, cat, 45, "Cancellation coercion")
	r.register("co_expiring", `(?i)\bexpir(?:e|ed|ing)\b`, cat, 45, "Expiry coercion")
	r.register("co_avoid_suspension", `(?i)\bavoid\s+(?:suspension|blocking|deactivation)\b`, cat, 70, "Avoid-suspension framing")
	r.register("co_prevent_closure", `(?i)\bprevent\s+(?:suspension|blocking|closure)\b`, cat, 70, "Prevent-closure framing")
	r.register("co_legal_action", `(?i)\blegal\s+action\b`, cat, 70, "Legal action coercion")
	r.register("co_police", `(?i)\bpolice\b`, cat, 65, "Police coercion")
	r.register("co_arrest", `(?i)\barrest(?:ed)?\b`, cat, 70, "Arrest coercion")
	r.register("co_court", `(?i)\bcourt\b`, cat, 65, "Court coercion")
	r.register("co_penalty", `(?i)\bpenalt(?:y|ies)\b`, cat, 55, "Penalty coercion")
	r.register("co_fine", `(?i)\bfin(?:e|ed)\b`, cat, 50, "Fine coercion")
	r.register("co_warrant", `(?i)\bwarrant\b`, cat, 70, "Warrant coercion")
	r.register("co_investigation", `(?i)\binvestigation\b`, cat, 60, "Investigation coercion")
}

func (r *Registry) registerUrgencySignalPatterns() {
	cat := CategoryUrgencySignal

	r.register("ur_immediately", `(?i)\bimmediately\b`, cat, 45, "Immediate deadline")
	r.register("ur_today", `(?i)\btoday\b`, cat, 30, "Same-day deadline")
	r.register("ur_now", `(?i)\bnow\b`, cat, 30, "Now deadline")
	r.register("ur_within_hours", `(?i)\bwithin\s+\d+\s+(?:hours?|minutes?)\b`, cat, 55, "Countdown deadline")
	r.register("ur_quickly", `(?i)\bquickly\b`, cat, 35, "Speed pressure")
	r.register("ur_asap", `(?i)\basap\b`, cat, 40, "ASAP pressure")
	r.register("ur_fast", `(?i)\bfast\b`, cat, 30, "Speed pressure")
	r.register("ur_hurry", `(?i)\bhurry\b`, cat, 40, "Hurry pressure")
	r.register("ur_last_warning", `(?i)\blast\s+(?:chance|warning|reminder)\b`, cat, 55, "Last-warning framing")
	r.register("ur_final_notice", `(?i)\bfinal\s+(?:notice|warning|reminder)\b`, cat, 55, "Final-notice framing")
	r.register("ur_limited_time", `(?i)\blimited\s+time\b`, cat, 45, "Limited-time framing")
	r.register("ur_expires_soon", `(?i)\bexpir(?:e|es|ing)\s+(?:today|soon|in)\b`, cat, 50, "Expires-soon framing")
	r.register("ur_deadline", `(?i)\bdeadline\b`, cat, 45, "Deadline mention")
	r.register("ur_only_hours", `(?i)\b(?:only|just)\s+\d+\s+(?:hours?|minutes?)\b`, cat, 50, "Countdown framing")
}

func (r *Registry) registerAuthorityClaimPatterns() {
	cat := CategoryAuthorityClaim

	r.register("au_official", `(?i)\bofficial\b`, cat, 40, "Official claim")
	r.register("au_authorized", `(?i)\bauthorized\b`, cat, 40, "Authorization claim")
	r.register("au_verified", `(?i)\bverified\b`, cat, 35, "Verified claim")
	r.register("au_customer_care", `(?i)\bcustomer\s+(?:care|service|support)\b`, cat, 45, "Customer-care claim")
	r.register("au_support_team", `(?i)\bsupport\s+team\b`, cat, 40, "Support-team claim")
	r.register("au_security_team", `(?i)\bsecurity\s+(?:team|department)\b`, cat, 50, "Security-team claim")
	r.register("au_rbi", `(?i)\brbi\b`, cat, 55, "RBI claim")
	r.register("au_reserve_bank", `(?i)\breserve\s+bank\b`, cat, 55, "Reserve Bank claim")
	r.register("au_government", `(?i)\bgovernment\b`, cat, 50, "Government claim")
	r.register("au_department", `(?i)\bdepartment\b`, cat, 35, "Department claim")
	r.register("au_headquarters", `(?i)\bheadquarters?\b`, cat, 35, "Headquarters claim")
}

func (r *Registry) registerUPIScamPatterns() {
	cat := CategoryUPIScam

	r.register("upi_share", `(?i)share.*upi`, cat, 75, "Share-UPI demand")
	r.register("upi_send", `(?i)send.*upi`, cat, 75, "Send-UPI demand")
	r.register("upi_credentials", `(?i)upi.*(?:id|pin|password)`, cat, 80, "UPI credential demand")
	r.register("upi_verify", `(?i)verify.*upi`, cat, 70, "Verify-UPI pretext")
	r.register("upi_update", `(?i)update.*upi`, cat, 70, "Update-UPI pretext")
	r.register("upi_confirm", `(?i)confirm.*upi`, cat, 70, "Confirm-UPI pretext")
	r.register("upi_threat", `(?i)upi.*(?:blocked|suspended|deactivated)`, cat, 80, "UPI blocking threat")
	r.register("upi_reactivate", `(?i)reactivate.*upi`, cat, 75, "Reactivate-UPI pretext")
	r.register("upi_link", `(?i)link.*upi`, cat, 70, "Link-UPI pretext")
}
