package location

// Top-level administrative names and their short forms.
const (
	Seoul     = "서울특별시"
	Busan     = "부산광역시"
	Daegu     = "대구광역시"
	Incheon   = "인천광역시"
	Gwangju   = "광주광역시"
	Daejeon   = "대전광역시"
	Ulsan     = "울산광역시"
	Sejong    = "세종특별자치시"
	Gyeonggi  = "경기도"
	Gangwon   = "강원특별자치도"
	Chungbuk  = "충청북도"
	Chungnam  = "충청남도"
	Jeonbuk   = "전북특별자치도"
	Jeonnam   = "전라남도"
	Gyeongbuk = "경상북도"
	Gyeongnam = "경상남도"
	Jeju      = "제주특별자치도"
)

type cityEntry struct {
	name    string
	aliases []string
}

var cities = []cityEntry{
	{Seoul, []string{"서울시", "서울"}},
	{Busan, []string{"부산시", "부산"}},
	{Daegu, []string{"대구시", "대구"}},
	{Incheon, []string{"인천시", "인천"}},
	{Gwangju, []string{"광주광역시", "광주"}},
	{Daejeon, []string{"대전시", "대전"}},
	{Ulsan, []string{"울산시", "울산"}},
	{Sejong, []string{"세종시", "세종"}},
	{Gyeonggi, nil},
	{Gangwon, []string{"강원도", "강원"}},
	{Chungbuk, []string{"충북"}},
	{Chungnam, []string{"충남"}},
	{Jeonbuk, []string{"전라북도", "전북"}},
	{Jeonnam, []string{"전남"}},
	{Gyeongbuk, []string{"경북"}},
	{Gyeongnam, []string{"경남"}},
	{Jeju, []string{"제주도", "제주"}},
}

// districts lists second-level units per city. Stems ("강남" for "강남구") are derived
// automatically when at least two runes long, except where listed in noStem.
var districts = map[string][]string{
	Seoul: {
		"강남구", "강동구", "강북구", "강서구", "관악구", "광진구", "구로구", "금천구",
		"노원구", "도봉구", "동대문구", "동작구", "마포구", "서대문구", "서초구", "성동구",
		"성북구", "송파구", "양천구", "영등포구", "용산구", "은평구", "종로구", "중구", "중랑구",
	},
	Busan: {
		"해운대구", "수영구", "부산진구", "금정구", "동래구", "사하구", "사상구", "연제구",
		"남구", "북구", "동구", "서구", "중구", "영도구", "강서구", "기장군",
	},
	Daegu:   {"수성구", "달서구", "중구", "동구", "서구", "남구", "북구", "달성군"},
	Incheon: {"연수구", "남동구", "부평구", "미추홀구", "계양구", "중구", "서구", "강화군"},
	Gwangju: {"광산구", "북구", "남구", "동구", "서구"},
	Daejeon: {"유성구", "대덕구", "중구", "동구", "서구"},
	Ulsan:   {"울주군", "중구", "남구", "동구", "북구"},
	Gyeonggi: {
		"수원시", "성남시", "고양시", "용인시", "부천시", "안산시", "안양시", "남양주시",
		"화성시", "평택시", "의정부시", "시흥시", "파주시", "김포시", "광명시", "광주시",
		"군포시", "오산시", "이천시", "양주시", "안성시", "구리시", "포천시", "의왕시",
		"하남시", "여주시", "양평군", "동두천시", "과천시", "가평군", "연천군",
	},
	Gangwon:   {"춘천시", "원주시", "강릉시", "속초시", "동해시", "삼척시", "평창군", "양양군"},
	Chungbuk:  {"청주시", "충주시", "제천시", "단양군"},
	Chungnam:  {"천안시", "아산시", "공주시", "보령시", "서산시", "태안군"},
	Jeonbuk:   {"전주시", "군산시", "익산시", "남원시"},
	Jeonnam:   {"목포시", "여수시", "순천시", "광양시", "담양군"},
	Gyeongbuk: {"포항시", "경주시", "안동시", "구미시", "경산시"},
	Gyeongnam: {"창원시", "진주시", "김해시", "양산시", "거제시", "통영시", "남해군"},
	Jeju:      {"제주시", "서귀포시"},
}

// noStem holds district stems that collide with a city short form or a common word.
var noStem = map[string]bool{
	"광주시": true,
	"제주시": true,
	"강화군": true,
	"달성군": true,
	"기장군": true,
	"남동구": true,
	"성동구": true,
}

// falsePositives are compounds containing a place stem that are not places.
var falsePositives = []string{"고양이", "수영장", "관악기", "공주님", "중구난방"}

// neighborhoods maps 동/area names to their parent city and district.
var neighborhoods = []alias{
	{"역삼동", Location{Seoul, "강남구"}},
	{"삼성동", Location{Seoul, "강남구"}},
	{"청담동", Location{Seoul, "강남구"}},
	{"압구정", Location{Seoul, "강남구"}},
	{"잠실", Location{Seoul, "송파구"}},
	{"한남동", Location{Seoul, "용산구"}},
	{"이태원", Location{Seoul, "용산구"}},
	{"성수동", Location{Seoul, "성동구"}},
	{"목동", Location{Seoul, "양천구"}},
	{"여의도", Location{Seoul, "영등포구"}},
	{"상암동", Location{Seoul, "마포구"}},
	{"합정", Location{Seoul, "마포구"}},
	{"연남동", Location{Seoul, "마포구"}},
	{"정자동", Location{Gyeonggi, "성남시"}},
	{"분당", Location{Gyeonggi, "성남시"}},
	{"판교", Location{Gyeonggi, "성남시"}},
	{"일산", Location{Gyeonggi, "고양시"}},
	{"동탄", Location{Gyeonggi, "화성시"}},
	{"광교", Location{Gyeonggi, "수원시"}},
	{"송도", Location{Incheon, "연수구"}},
	{"서면", Location{Busan, "부산진구"}},
	{"센텀", Location{Busan, "해운대구"}},
}

var landmarks = []alias{
	{"롯데월드", Location{Seoul, "송파구"}},
	{"경복궁", Location{Seoul, "종로구"}},
	{"창경궁", Location{Seoul, "종로구"}},
	{"남산타워", Location{Seoul, "용산구"}},
	{"N서울타워", Location{Seoul, "용산구"}},
	{"국립중앙박물관", Location{Seoul, "용산구"}},
	{"서울숲", Location{Seoul, "성동구"}},
	{"어린이대공원", Location{Seoul, "광진구"}},
	{"코엑스", Location{Seoul, "강남구"}},
	{"63빌딩", Location{Seoul, "영등포구"}},
	{"한강", Location{Seoul, ""}},
	{"에버랜드", Location{Gyeonggi, "용인시"}},
	{"민속촌", Location{Gyeonggi, "용인시"}},
	{"광안리", Location{Busan, "수영구"}},
	{"감천문화마을", Location{Busan, "사하구"}},
	{"태종대", Location{Busan, "영도구"}},
	{"월미도", Location{Incheon, "중구"}},
	{"엑스포과학공원", Location{Daejeon, "유성구"}},
	{"수성못", Location{Daegu, "수성구"}},
	{"첨성대", Location{Gyeongbuk, "경주시"}},
	{"불국사", Location{Gyeongbuk, "경주시"}},
	{"경포대", Location{Gangwon, "강릉시"}},
	{"남이섬", Location{Gangwon, "춘천시"}},
	{"성산일출봉", Location{Jeju, "서귀포시"}},
	{"한라산", Location{Jeju, ""}},
}

var universities = []alias{
	{"서울대", Location{Seoul, "관악구"}},
	{"연세대", Location{Seoul, "서대문구"}},
	{"이화여대", Location{Seoul, "서대문구"}},
	{"고려대", Location{Seoul, "성북구"}},
	{"홍익대", Location{Seoul, "마포구"}},
	{"한양대", Location{Seoul, "성동구"}},
	{"건국대", Location{Seoul, "광진구"}},
	{"성균관대", Location{Seoul, "종로구"}},
	{"카이스트", Location{Daejeon, "유성구"}},
	{"kaist", Location{Daejeon, "유성구"}},
	{"포스텍", Location{Gyeongbuk, "포항시"}},
	{"부산대", Location{Busan, "금정구"}},
	{"아주대", Location{Gyeonggi, "수원시"}},
}

// aliases covers nicknames and romanized names. Input is lowercased before matching.
var aliases = []alias{
	{"홍대", Location{Seoul, "마포구"}},
	{"신촌", Location{Seoul, "서대문구"}},
	{"대학로", Location{Seoul, "종로구"}},
	{"인사동", Location{Seoul, "종로구"}},
	{"명동", Location{Seoul, "중구"}},
	{"gangnam", Location{Seoul, "강남구"}},
	{"hongdae", Location{Seoul, "마포구"}},
	{"haeundae", Location{Busan, "해운대구"}},
	{"seoul", Location{Seoul, ""}},
	{"busan", Location{Busan, ""}},
	{"incheon", Location{Incheon, ""}},
	{"daegu", Location{Daegu, ""}},
	{"daejeon", Location{Daejeon, ""}},
	{"gwangju", Location{Gwangju, ""}},
	{"ulsan", Location{Ulsan, ""}},
	{"sejong", Location{Sejong, ""}},
	{"suwon", Location{Gyeonggi, "수원시"}},
	{"jeju", Location{Jeju, ""}},
}

// corrections maps common misspellings and station names to a location.
var corrections = []alias{
	{"서을", Location{Seoul, ""}},
	{"부싼", Location{Busan, ""}},
	{"인쳔", Location{Incheon, ""}},
	{"데구", Location{Daegu, ""}},
	{"겅남", Location{Seoul, "강남구"}},
	{"서울역", Location{Seoul, "용산구"}},
	{"수원역", Location{Gyeonggi, "수원시"}},
	{"부산역", Location{Busan, "동구"}},
}

// suffixRules resolve beach/park style names: the text must carry one of the suffixes
// and the keyword.
var suffixRules = []suffixRule{
	{[]string{"해수욕장", "해변", "비치", "beach"}, "경포", Location{Gangwon, "강릉시"}},
	{[]string{"해수욕장", "해변", "비치", "beach"}, "협재", Location{Jeju, "제주시"}},
	{[]string{"해수욕장", "해변", "비치", "beach"}, "중문", Location{Jeju, "서귀포시"}},
	{[]string{"해수욕장", "해변", "비치", "beach"}, "을왕리", Location{Incheon, "중구"}},
	{[]string{"해수욕장", "해변", "비치", "beach"}, "대천", Location{Chungnam, "보령시"}},
	{[]string{"해수욕장", "해변", "비치", "beach"}, "송정", Location{Busan, "해운대구"}},
	{[]string{"공원", "park"}, "올림픽", Location{Seoul, "송파구"}},
	{[]string{"공원", "park"}, "월드컵", Location{Seoul, "마포구"}},
}

// relativePhrases reference the user's own position, which the system cannot know.
var relativePhrases = []string{"근처", "주변", "여기", "이곳", "가까운", "nearby", "nearme", "aroundhere"}

// stations maps districts and cities to KMA forecast station codes.
// Districts are checked before their city.
var stations = map[string]string{
	Seoul:     "108",
	Busan:     "159",
	Daegu:     "143",
	Incheon:   "112",
	Gwangju:   "156",
	Daejeon:   "133",
	Ulsan:     "152",
	Sejong:    "239",
	Gyeonggi:  "119",
	Gangwon:   "101",
	Chungbuk:  "131",
	Chungnam:  "232",
	Jeonbuk:   "146",
	Jeonnam:   "165",
	Gyeongbuk: "138",
	Gyeongnam: "155",
	Jeju:      "184",

	"수원시":  "119",
	"춘천시":  "101",
	"원주시":  "114",
	"강릉시":  "105",
	"속초시":  "90",
	"청주시":  "131",
	"충주시":  "127",
	"천안시":  "232",
	"보령시":  "235",
	"전주시":  "146",
	"군산시":  "140",
	"목포시":  "165",
	"여수시":  "168",
	"순천시":  "174",
	"포항시":  "138",
	"경주시":  "283",
	"안동시":  "136",
	"창원시":  "155",
	"진주시":  "192",
	"통영시":  "162",
	"제주시":  "184",
	"서귀포시": "189",
}

// DefaultStation is Seoul, used when nothing resolves.
const DefaultStation = "108"
