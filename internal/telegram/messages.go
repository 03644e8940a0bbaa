package telegram

import "fmt"

// maxMessageRunes is Telegram's limit for a single text message.
const maxMessageRunes = 4096

const welcomeTemplate = `
안녕하세요 %s님!
러닝 코치 봇입니다.

저는 당신의 러닝을 도와드립니다:
- 러닝 기록 관리
- 개인화된 조언 제공
- 동기부여 메시지

/help 를 입력하면 사용 가능한 명령어를 볼 수 있습니다.
`

const helpText = `
사용 가능한 명령어:

/start - 봇 시작
/help - 도움말 보기
/record - 러닝 기록하기 (예: /record 5.0 00:25:47 - 5km를 25분 47초)

일반 메시지를 보내면 AI 코치와 대화할 수 있습니다!
`

const (
	recordUsageText = "사용법: /record [거리(km)] [시간(hh:mm:ss)]\n예시: /record 5.0 00:25:47"

	recordFormatText = "입력 형식이 올바르지 않습니다. 거리는 숫자, 시간은 hh:mm:ss 형식으로 입력해주세요.\n" +
		"Invalid format. Distance must be a number and time must be hh:mm:ss.\n" +
		"예시 / Example: /record 5.0 00:25:47"

	zeroDistanceText = "거리는 0보다 커야 합니다.\nDistance must be greater than 0."

	persistErrorText = "기록 저장 중 오류가 발생했습니다. 잠시 후 다시 시도해주세요."

	recordSavedPrefix = "기록이 저장되었습니다!\n\n"

	unknownCommandText = "알 수 없는 명령어입니다. /help 를 입력해 사용 가능한 명령어를 확인하세요."
)

func welcomeText(name string) string {
	return fmt.Sprintf(welcomeTemplate, name)
}

func clip(text string) string {
	r := []rune(text)
	if len(r) <= maxMessageRunes {
		return text
	}
	return string(r[:maxMessageRunes-1]) + "…"
}
