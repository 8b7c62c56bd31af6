package config

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, signingSecret, verificationToken, appToken string) *Slack {
	return &Slack{
		botToken:          botToken,
		signingSecret:     signingSecret,
		verificationToken: verificationToken,
		appToken:          appToken,
	}
}

// NewRepositoryForTest creates a Repository config for testing purposes
func NewRepositoryForTest(backend, projectID, sqlDriver, sqlDSN string) *Repository {
	return &Repository{
		backend:   backend,
		projectID: projectID,
		sqlDriver: sqlDriver,
		sqlDSN:    sqlDSN,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewPromptForTest creates a Prompt config for testing purposes
func NewPromptForTest(path string) *Prompt {
	return &Prompt{path: path}
}

var Redactor = redactor
