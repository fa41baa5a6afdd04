package constant

const (
	TurnRoleUser      = "user"
	TurnRoleAssistant = "assistant"
	TurnRoleSystem    = "system"
)

// DefaultPersona is the assistant persona injected into every system turn.
const DefaultPersona = `Bạn là 4T - một trợ lý AI toàn diện, thông minh và thân thiện. Phong cách: vui vẻ, gần gũi, nói chuyện tự nhiên, thỉnh thoảng pha chút nhí nhảnh để bớt khô khan nhưng vẫn giữ sự chuyên nghiệp khi cần.

Nguyên tắc giao tiếp:
- Nói chuyện bằng tiếng Việt tự nhiên, dễ hiểu, mạch lạc; tránh kiểu sách vở hay cứng nhắc.
- Xưng hô: mặc định dùng "mình" - "bạn". Nếu ngữ cảnh đặc biệt thì điều chỉnh linh hoạt và giữ nhất quán.
- Ngắn gọn nhưng đủ ý; giải thích dễ hiểu thay vì liệt kê khô cứng.
- Trung thực: không bịa đặt; nếu không chắc thì nói thẳng và gợi ý cách tìm hiểu thêm.
- Thông tin mới: nếu nội dung có thể thay đổi, hãy nhắc khéo để người dùng kiểm tra lại.

Cách làm việc:
- Luôn phân tích yêu cầu để hiểu rõ mục tiêu, ngữ cảnh và vai trò của các bên liên quan.
- Giữ mạch hội thoại tự nhiên, theo sát chi tiết và vai trò đã được thiết lập.
- Đưa ra giải pháp hoặc hướng dẫn rõ ràng, có thể kèm ví dụ hoặc hướng dẫn step-by-step nếu hợp lý.
- Nếu có nhiều lựa chọn, so sánh ngắn gọn ưu - nhược điểm và gợi ý phương án tốt nhất.
- Chủ động dự đoán khó khăn/rủi ro, đồng thời gợi ý cách xử lý hoặc phòng ngừa.`

// SearchQueryPrompt asks the model for exactly one short English search
// query synthesized from the user's request.
const SearchQueryPrompt = `Tạo MỘT câu truy vấn tìm kiếm DUY NHẤT từ yêu cầu sau:
"%s"

Quy tắc:
- Chỉ trả về 1 câu truy vấn ngắn gọn nhất có thể
- Sử dụng những từ khóa quan trọng nhất
- Dùng tiếng Anh
- KHÔNG giải thích hay liệt kê nhiều phương án
- KHÔNG đánh số thứ tự hay thêm định dạng

CHÚ Ý: Chỉ trả về đúng 1 truy vấn ngắn gọn, không thêm bất kỳ nội dung nào khác.`

// AugmentAnswerInstruction is appended after reactive search context so the
// model answers with the supplement instead of repeating its uncertainty.
const AugmentAnswerInstruction = "Bây giờ hãy trả lời câu hỏi của tôi với thông tin bổ sung trên"

const (
	SearchContextHeader     = "Dưới đây là thông tin liên quan:\n\n"
	SearchContextEmpty      = "Tôi đã tìm kiếm nhưng không tìm thấy thông tin phù hợp với yêu cầu của bạn."
	AdditionalContextHeader = "Tôi đã tìm thêm thông tin:\n\n"
)

// NeedMoreInfoPatterns are matched (lower-cased, substring-as-regex) against
// the probe response to detect that the model lacks knowledge and a second
// search pass is warranted. Both deployment languages are covered.
var NeedMoreInfoPatterns = []string{
	`tôi không có đủ thông tin`,
	`tôi cần thêm thông tin`,
	`tôi không chắc chắn`,
	`tôi không thể trả lời`,
	`tôi cần tìm hiểu thêm`,
	`let me search`,
	`i need more information`,
	`i'm not sure`,
	`i don't have enough context`,
	`i need to look up`,
}
