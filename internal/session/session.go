package session

// FlowKind tags the multi-step interaction a chat is currently inside.
type FlowKind string

const (
	FlowOnboarding FlowKind = "onboarding"
	FlowDeposit    FlowKind = "deposit"
	FlowExchange   FlowKind = "exchange"
	FlowTransfer   FlowKind = "transfer"
)

// Step tags the next prompt the flow is waiting on. The step stored in the
// session acts as the chat's single pending continuation: the dispatcher
// delivers the next free-text message to the handler registered for it.
type Step string

// Onboarding steps.
const (
	StepOnboardingPath    Step = "path"
	StepOnboardingContact Step = "contact"
	StepOnboardingConsent Step = "consent"
	StepOnboardingEmail   Step = "email"
	StepOnboardingPass    Step = "password"
	StepOnboardingConfirm Step = "confirm_register"
	StepLoginEmail        Step = "login_email"
	StepLoginPass         Step = "login_password"
)

// Deposit steps.
const (
	StepDepositAmount  Step = "amount"
	StepDepositWallet  Step = "wallet"
	StepDepositGateway Step = "gateway"
	StepDepositReceipt Step = "receipt"
	StepDepositPhone   Step = "phone"
	StepDepositConfirm Step = "confirm"
	StepDepositPin     Step = "pin"
)

// Exchange steps.
const (
	StepExchangeAmount Step = "amount"
	StepExchangeFrom   Step = "from"
	StepExchangeTo     Step = "to"
	StepExchangePin    Step = "pin"
)

// Bank transfer steps.
const (
	StepTransferType     Step = "type"
	StepTransferWallet   Step = "wallet"
	StepTransferAmount   Step = "amount"
	StepTransferBank     Step = "bank"
	StepTransferIban     Step = "iban"
	StepTransferName     Step = "account_name"
	StepTransferPurpose  Step = "purpose"
	StepTransferInvoice  Step = "invoice_scan"
	StepTransferBankInfo Step = "bank_info_scan"
	StepTransferAddress  Step = "address"
	StepTransferConfirm  Step = "confirm"
	StepTransferPin      Step = "pin"
)

type (
	// Session is the per-chat record. One per chat identifier, created on
	// first reference.
	Session struct {
		Auth Auth  `json:"auth"`
		Flow *Flow `json:"flow,omitempty"`
	}

	Auth struct {
		IsAuthed    bool   `json:"is_authed"`
		AccessToken string `json:"access_token,omitempty"`
		Email       string `json:"email,omitempty"`
		PinVerified bool   `json:"pin_verified,omitempty"`
		User        *User  `json:"user,omitempty"`
	}

	User struct {
		ID    int64  `json:"id"`
		Name  string `json:"name,omitempty"`
		Email string `json:"email,omitempty"`
	}

	// Flow is the single active flow of a chat plus everything accumulated
	// so far. Exactly one of the kind-specific fields is set.
	Flow struct {
		ID   string   `json:"id"`
		Kind FlowKind `json:"kind"`
		Step Step     `json:"step"`

		// PIN verification attempts used so far, capped at MaxPinAttempts
		PinAttempts int `json:"pin_attempts,omitempty"`

		Onboarding *OnboardingState `json:"onboarding,omitempty"`
		Deposit    *DepositState    `json:"deposit,omitempty"`
		Exchange   *ExchangeState   `json:"exchange,omitempty"`
		Transfer   *TransferState   `json:"transfer,omitempty"`
	}

	OnboardingState struct {
		Registering bool   `json:"registering,omitempty"`
		Phone       string `json:"phone,omitempty"`
		FirstName   string `json:"first_name,omitempty"`
		LastName    string `json:"last_name,omitempty"`
		Email       string `json:"email,omitempty"`
		Password    string `json:"password,omitempty"`
	}

	DepositState struct {
		Wallets []Wallet        `json:"wallets,omitempty"`
		Amount  float64         `json:"amount,omitempty"`
		Wallet  *Wallet         `json:"wallet,omitempty"`
		Methods []GatewayMethod `json:"methods,omitempty"`
		Gateway *GatewayMethod  `json:"gateway,omitempty"`
		Phone   string          `json:"phone,omitempty"`
		Receipt *Attachment     `json:"receipt,omitempty"`
	}

	ExchangeState struct {
		Wallets    []ExchangeWallet `json:"wallets,omitempty"`
		Currencies []Currency       `json:"currencies,omitempty"`
		Charge     ChargeSchedule   `json:"charge"`
		Amount     float64          `json:"amount,omitempty"`
		From       *ExchangeWallet  `json:"from,omitempty"`
		To         *Currency        `json:"to,omitempty"`
		// recap shown at the PIN step, kept so reprompts stay cheap
		Resume string `json:"resume,omitempty"`
	}

	TransferState struct {
		Wallets      []TransferWallet `json:"wallets,omitempty"`
		Wallet       *TransferWallet  `json:"wallet,omitempty"`
		CurrencyCode string           `json:"currency_code,omitempty"`
		Amount       float64          `json:"amount,omitempty"`
		Banks        []Bank           `json:"banks,omitempty"`
		Bank         string           `json:"bank,omitempty"`
		Iban         string           `json:"iban,omitempty"`
		AccountName  string           `json:"account_name,omitempty"`
		Purpose      string           `json:"purpose,omitempty"`
		InvoiceScan  *Attachment      `json:"invoice_scan,omitempty"`
		BankInfoScan *Attachment      `json:"bank_info_scan,omitempty"`
		Address      string           `json:"address,omitempty"`
		Details      *TransferDetails `json:"details,omitempty"`
	}

	// Wallet as presented by the deposit form.
	Wallet struct {
		ID       int64  `json:"id" mapstructure:"id"`
		Code     string `json:"code" mapstructure:"code"`
		CurrName string `json:"curr_name" mapstructure:"curr_name"`
	}

	GatewayMethod struct {
		ID   int64  `json:"id" mapstructure:"id"`
		Name string `json:"name" mapstructure:"name"`
		Type string `json:"type" mapstructure:"type"`
	}

	// ExchangeWallet carries the rate needed for the local fallback quote.
	ExchangeWallet struct {
		ID      int64   `json:"id"`
		Code    string  `json:"code"`
		CurrID  int64   `json:"curr_id"`
		Rate    float64 `json:"rate"`
		Balance float64 `json:"balance"`
		Type    string  `json:"type,omitempty"`
	}

	Currency struct {
		ID   int64   `json:"id"`
		Code string  `json:"code"`
		Rate float64 `json:"rate"`
		Type string  `json:"type,omitempty"`
	}

	ChargeSchedule struct {
		FixedCharge   float64 `json:"fixed_charge" mapstructure:"fixed_charge"`
		PercentCharge float64 `json:"percent_charge" mapstructure:"percent_charge"`
	}

	TransferWallet struct {
		ID      int64   `json:"id"`
		Code    string  `json:"code"`
		Balance float64 `json:"balance"`
	}

	Bank struct {
		Title string `json:"title" mapstructure:"title"`
	}

	TransferDetails struct {
		Fees        string `json:"fees" mapstructure:"fees"`
		Tva         string `json:"tva" mapstructure:"tva"`
		FinalAmount string `json:"final_amount" mapstructure:"finalAmount"`
	}

	// Attachment is a downloaded user file retained for multipart submission.
	Attachment struct {
		Filename string `json:"filename"`
		Mime     string `json:"mime"`
		Size     int64  `json:"size"`
		Data     []byte `json:"data"`
	}
)
