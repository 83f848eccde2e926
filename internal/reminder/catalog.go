package reminder

// Catalog holds every user-facing string the skill speaks, plus the two
// reminder titles and the layouts used to read instants back to the user.
//
// A Catalog is a value: copies are independent and nothing mutates one
// after construction.
type Catalog struct {
	Welcome                  string `json:"welcome,omitempty"`
	Help                     string `json:"help,omitempty"`
	Stop                     string `json:"stop,omitempty"`
	Fallback                 string `json:"fallback,omitempty"`
	Denied                   string `json:"denied,omitempty"`
	NotifyMissingPermissions string `json:"notify_missing_permissions,omitempty"`
	NoValue                  string `json:"no_value,omitempty"`
	ReminderSet              string `json:"reminder_set,omitempty"`
	NoReminderSet            string `json:"no_reminder_set,omitempty"`

	UnsupportedDevice   string `json:"unsupported_device,omitempty"`
	StatusUnknown       string `json:"status_unknown,omitempty"`
	PermissionsRequired string `json:"permissions_required,omitempty"`

	TenMinutesTitle string `json:"ten_minutes_title,omitempty"`
	OneMinuteTitle  string `json:"one_minute_title,omitempty"`

	// Joiner sits between the two instants in the "both set" confirmation.
	Joiner string `json:"joiner,omitempty"`
	// FullLayout renders date and time, ClockLayout time only (Go layouts).
	FullLayout  string `json:"full_layout,omitempty"`
	ClockLayout string `json:"clock_layout,omitempty"`
}

// DefaultCatalog returns the strings of the Japanese deployment.
func DefaultCatalog() Catalog {
	return Catalog{
		Welcome:                  "リモート会議のリマインダーです、会議の時間を指定してください",
		Help:                     "このスキルは会議の10分前と1分前にリマインダーを予約します、会議の時間を指定してください",
		Stop:                     "さようなら",
		Fallback:                 "すみません、時刻をうまく聞き取れませんでした、もう一度お願いします",
		Denied:                   "はい、もう一度時間を指定してください",
		NotifyMissingPermissions: "アレクサアプリのホーム画面でリマインダーを有効にしてください",
		NoValue:                  "時間を聞き取れませんでした、もう一度お願いします",
		ReminderSet:              "にリマインダーをセットしました",
		NoReminderSet:            "既にその時刻を過ぎています",

		UnsupportedDevice: "このデバイスはリマインダーに対応していません",
		StatusUnknown:     "すみません、リマインダーの予約で予期せぬエラーが発生しました",
		PermissionsRequired: "このスキルにリマインダーを作成する権限が許可されていないため、リマインダーを予約できませんでした、" +
			"リマインダーを作成するために、スマートフォンのアレクサアプリのホーム画面で、リマインダーの権限を許可してください",

		TenMinutesTitle: "リモート会議10分前",
		OneMinuteTitle:  "リモート会議1分前",

		Joiner:      "と",
		FullLayout:  "2006年01月2日、15:04",
		ClockLayout: "15:04",
	}
}

// Merge returns c with every non-empty field of o applied on top.
func (c Catalog) Merge(o Catalog) Catalog {
	pick := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	pick(&c.Welcome, o.Welcome)
	pick(&c.Help, o.Help)
	pick(&c.Stop, o.Stop)
	pick(&c.Fallback, o.Fallback)
	pick(&c.Denied, o.Denied)
	pick(&c.NotifyMissingPermissions, o.NotifyMissingPermissions)
	pick(&c.NoValue, o.NoValue)
	pick(&c.ReminderSet, o.ReminderSet)
	pick(&c.NoReminderSet, o.NoReminderSet)
	pick(&c.UnsupportedDevice, o.UnsupportedDevice)
	pick(&c.StatusUnknown, o.StatusUnknown)
	pick(&c.PermissionsRequired, o.PermissionsRequired)
	pick(&c.TenMinutesTitle, o.TenMinutesTitle)
	pick(&c.OneMinuteTitle, o.OneMinuteTitle)
	pick(&c.Joiner, o.Joiner)
	pick(&c.FullLayout, o.FullLayout)
	pick(&c.ClockLayout, o.ClockLayout)
	return c
}
