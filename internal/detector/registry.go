package detector

// KnownAgentEnvVars are variables set by AI coding agents. Presence alone
// means Agent mode; the value is ignored.
var KnownAgentEnvVars = []string{
	"CLAUDE_CODE",
	"ANTHROPIC_PROJECT_ID",
	"CURSOR_SESSION",
	"CURSOR_TRACE_ID",
	"AIDER_MODEL",
	"AIDER_CHAT_HISTORY_FILE",
	"CODEX_SESSION",
	"OPENAI_API_KEY_FOR_AGENT",
	"DEVIN_SESSION",
	"DEVIN_API_KEY",
	"CLINE_SESSION",
	"CLINE_API_KEY",
	"CONTINUE_SESSION",
	"CONTINUE_GLOBAL_DIR",
	"GITHUB_COPILOT_WORKSPACE",
	"AWS_CODEWHISPERER_SESSION",
	"AMAZON_Q_SESSION",
	"CODY_SESSION",
	"SRC_ACCESS_TOKEN",
	"TABNINE_SESSION",
	"REPLIT_AGENT",
	"REPL_ID",
	"AI_AGENT",
	"CODING_AGENT",
}

// CIVendorEnvVars are variables set by specific CI providers. Presence alone
// means CI mode. The generic CI variable is handled separately because it
// must carry a truthy value.
var CIVendorEnvVars = []string{
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_URL",
	"BUILDKITE",
	"BITBUCKET_PIPELINE",
	"BITBUCKET_BUILD_NUMBER",
	"AZURE_PIPELINES",
	"TF_BUILD",
	"TEAMCITY_VERSION",
	"DRONE",
	"WOODPECKER",
	"SEMAPHORE",
	"APPVEYOR",
	"CODEBUILD_BUILD_ID",
	"NETLIFY",
	"VERCEL",
	"RENDER",
	"RAILWAY_ENVIRONMENT",
	"FLY_APP_NAME",
}
