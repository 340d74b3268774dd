package llm

// Fixed instruction prompts for the inference endpoint. The vector index's
// working language is Chinese, so translation targets Chinese and the
// downstream prompts are written in it.
const (
	extractionPrompt = "请提取图片中的产品信息"

	integrationSystem = "你是一个文档处理员"
	integrationPrompt = "请帮忙整合以下文档 %s"

	translationSystem = "你是一个专业的翻译助手，请将用户输入的内容准确翻译成中文。"
	translationPrompt = "请将以下内容翻译成中文，只返回翻译结果，不要添加任何解释：%s"

	answerSystem = "你是一个专业的文档问答助手，请基于提供的文档内容准确回答用户问题。"
	answerPrompt = "基于以下检索到的文档内容，回答用户的问题。如果文档内容不足以回答问题，请说明。\n\n用户问题：%s\n\n检索到的文档内容：%s"
)
