package almanac

// The ten heavenly stems and twelve earthly branches, in cycle order.
var Stems = [10]string{"甲", "乙", "丙", "丁", "戊", "己", "庚", "辛", "壬", "癸"}

var Branches = [12]string{"子", "丑", "寅", "卯", "辰", "巳", "午", "未", "申", "酉", "戌", "亥"}

var stemElements = [10]string{"木", "木", "火", "火", "土", "土", "金", "金", "水", "水"}

var branchElements = [12]string{"水", "土", "木", "木", "土", "火", "火", "土", "金", "金", "土", "水"}

var zodiacAnimals = [12]string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}

// monthCutoverDay approximates the solar-term boundary for each calendar
// month: on or after this day the month pillar advances. Index 1..12.
var monthCutoverDay = [13]int{0, 6, 4, 6, 5, 6, 6, 7, 8, 8, 8, 7, 7}

// firstMonthStem maps the year-stem group (yearStem mod 5) to the stem of
// the first solar month (the 寅 month). 甲己→丙, 乙庚→戊, 丙辛→庚, 丁壬→壬, 戊癸→甲.
var firstMonthStem = [5]int{2, 4, 6, 8, 0}

// firstHourStem maps the day-stem group (dayStem mod 5) to the stem of the
// 子 hour. 甲己→甲, 乙庚→丙, 丙辛→戊, 丁壬→庚, 戊癸→壬.
var firstHourStem = [5]int{0, 2, 4, 6, 8}

var hourRangeLabels = [12]string{
	"23:00-01:00", "01:00-03:00", "03:00-05:00", "05:00-07:00",
	"07:00-09:00", "09:00-11:00", "11:00-13:00", "13:00-15:00",
	"15:00-17:00", "17:00-19:00", "19:00-21:00", "21:00-23:00",
}
