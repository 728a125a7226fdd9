package vision

// placeholderLabel is what an unmapped class id resolves to. It never reaches clients.
const placeholderLabel = "object"

// cocoLabels holds the 80 COCO category names; cocoLabels[k-1] is category key k.
var cocoLabels = [80]string{
	"person", "bicycle", "car", "motorcycle", "airplane",
	"bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird",
	"cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack",
	"umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat",
	"baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange",
	"broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed",
	"dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven",
	"toaster", "sink", "refrigerator", "book", "clock",
	"vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// LabelForClass maps a detector class id to a category name. The id is shifted by one
// before the table lookup to line the model's ids up with the table keys; keys outside
// 1..80 resolve to the placeholder and ok is false.
func LabelForClass(classID int64) (label string, ok bool) {
	key := classID - 1
	if key < 1 || key > int64(len(cocoLabels)) {
		return placeholderLabel, false
	}
	return cocoLabels[key-1], true
}
