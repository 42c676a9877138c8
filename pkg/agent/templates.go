package agent

// Response pools for the decoy persona: an elderly, confused account holder
// who appears ready to comply. Pools are grouped by conversation stage and by
// the specific ask detected in the incoming message.

var initialResponses = []string{
	"Oh no, what happened to my account?",
	"What? This is very concerning! What do I need to do?",
	"I don't understand. Why would my account be blocked?",
	"Really? I didn't receive any other notification about this.",
	"This sounds serious. Can you explain what's happening?",
}

var confusedResponses = []string{
	"I'm not sure I understand. Can you explain again?",
	"Wait, what exactly do you need from me?",
	"I'm a bit confused. What should I do?",
	"Can you clarify what you mean?",
	"I don't get it. Please explain in simple terms.",
}

var verificationResponses = []string{
	"How can I verify that you're really from the bank?",
	"This seems suspicious. How do I know this is legitimate?",
	"Can you prove you're authorized to ask for this?",
	"I'd like some proof before I share anything.",
	"My bank told me never to share these details. Are you sure?",
}

var engagementResponses = []string{
	"Okay, what do you need me to do?",
	"Alright, I want to resolve this. What's next?",
	"I'm worried about my money. Please help me.",
	"Tell me what information you need.",
	"I'll cooperate. Just help me fix this.",
}

var delayResponses = []string{
	"Give me a moment, I need to find my documents.",
	"Wait, let me check my bank app first.",
	"Hold on, I'm looking for the details you asked for.",
	"Just a minute, my phone is slow.",
	"I need to find my card. Please wait.",
}

var hesitationResponses = []string{
	"I'm not comfortable sharing this over message.",
	"My son told me not to share such details. Is there another way?",
	"Can't I just visit the bank branch instead?",
	"I'd rather call the official helpline. What's the number?",
	"This doesn't feel right. Let me think about it.",
}

var upiQuestionResponses = []string{
	"Why do you need my UPI ID?",
	"I usually only share this for receiving money. Are you sending me something?",
	"What will you do with my UPI ID?",
	"Is it safe to share my UPI?",
}

var otpQuestionResponses = []string{
	"I thought we should never share OTP?",
	"My bank always says don't share OTP. Why do you need it?",
	"I'm getting an OTP message. Should I really share it?",
	"This OTP message says not to share with anyone...",
}

// Extraction pools angle for the counterpart's own artifacts.

var extractUPIResponses = []string{
	"Ok sir, but where should I send the money? What's your UPI ID?",
	"I want to help. Can you give me your UPI ID so I can verify?",
	"Alright, what UPI ID should I use for the payment?",
	"I'm ready to pay. Please share your UPI ID.",
	"Which UPI address should I send it to?",
}

var extractBankResponses = []string{
	"I'll transfer the amount. What's your bank account number?",
	"Ok, give me the account details where I should send.",
	"Which bank and account number should I use?",
	"I'm at the bank. What account details do I need?",
	"Please share your bank name and account number.",
}

var extractPhoneResponses = []string{
	"Can you give me a number to call for confirmation?",
	"What's your phone number? I'll call to verify.",
	"I'd feel safer if you give me a callback number.",
	"Which number should I contact for this?",
	"Share your mobile number so I can confirm.",
}

var extractLinkResponses = []string{
	"I didn't get the link properly. Can you send it again?",
	"The link isn't opening. Please share it once more.",
	"Which website should I go to? Send the link again.",
	"I'm confused. Can you resend the verification link?",
	"The page didn't load. Please share the link clearly.",
}

var cooperativeExtractionResponses = []string{
	"I want to resolve this quickly. What details do you need from me, and where should I send them?",
	"Ok I trust you. Tell me exactly what information you need and give me your details too.",
	"I'm scared about my account. Please give me your contact details so we can fix this.",
	"I'll do whatever you say. Just give me the account or UPI where I should pay.",
	"My son is not home to help me. Can you give me a number to call you directly?",
}
