package output

import "github.com/fatih/color"

func WithHighLightFormat(text string, a ...interface{}) string {
	return color.CyanString(text, a...)
}

func WithErrorFormat(text string, a ...interface{}) string {
	return color.RedString(text, a...)
}

func WithWarningFormat(text string, a ...interface{}) string {
	return color.YellowString(text, a...)
}

func WithSuccessFormat(text string, a ...interface{}) string {
	return color.GreenString(text, a...)
}

// WithGrayFormat is used for secondary detail such as expiry timestamps.
func WithGrayFormat(text string, a ...interface{}) string {
	return color.HiBlackString(text, a...)
}
